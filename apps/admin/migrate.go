package main

import (
	"github.com/pressly/goose/v3"

	appfs "github.com/trezcool/ecole/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetBaseFS(appfs.FS)
	return gooseRunFunc(args[0], cli.db, appfs.MigrationsDir, args[1:]...)
}
