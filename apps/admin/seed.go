package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) seed() error {
	ctx := context.Background()

	created, err := cli.usrSvc.EnsureDefaultAdmin(ctx, cli.conf.Seed.AdminEmail, cli.conf.Seed.AdminPassword)
	if err != nil {
		return errors.Wrap(err, "seeding default admin")
	}
	if created {
		fmt.Printf("admin %q created\n", cli.conf.Seed.AdminEmail)
	}

	n, err := cli.subjectSvc.EnsureDefaults(ctx)
	if err != nil {
		return errors.Wrap(err, "seeding default subjects")
	}
	fmt.Printf("%d subjects created\n", n)
	return nil
}
