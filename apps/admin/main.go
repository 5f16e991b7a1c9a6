package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/services/logger"
	"github.com/trezcool/ecole/storage"
	"github.com/trezcool/ecole/storage/database"
	"github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	var db *sql.DB
	var store *storage.Store
	switch conf.Database.Engine {
	case core.EnginePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal("creating database", err)
		}
		xdb, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		db = xdb.DB
		store = sqlxrepos.NewStore(xdb)
	default:
		logger.Warn("the in-memory engine does not outlive this command")
		store = inmemdb.NewStore()
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         db,
		usrSvc:     user.NewService(store.Users, store.Tx, store.Activities, nil),
		subjectSvc: subject.NewService(store.Subjects, store.Tx, store.Activities),
		validate:   validate,
	}
	err := cli.run(os.Args)
	_ = store.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
