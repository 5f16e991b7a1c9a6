package main

import (
	"context"
	"fmt"

	"github.com/trezcool/ecole/core/user"
)

// addUser creates an active user who does not have to change the prompted password.
func (cli *commandLine) addUser(email, role, firstName, lastName, pwd string) error {
	active, mustChange := true, false
	nu := user.NewUser{
		Email:              email,
		FirstName:          firstName,
		LastName:           lastName,
		Role:               role,
		Password:           pwd,
		ConfirmPassword:    pwd,
		IsActive:           &active,
		MustChangePassword: &mustChange,
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	usr, err := cli.usrSvc.Register(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q created\n", usr.Role, usr.Email)
	return nil
}
