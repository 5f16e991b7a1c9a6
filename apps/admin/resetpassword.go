package main

import "context"

// resetPassword sets pwd as the password of the user holding email. The user has to change it at the next sign in.
func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), email, pwd)
}
