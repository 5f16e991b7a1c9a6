package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/ecole/apps/api/echo"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/session"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	appfs "github.com/trezcool/ecole/fs"
	"github.com/trezcool/ecole/services/email"
	"github.com/trezcool/ecole/services/filestore"
	"github.com/trezcool/ecole/services/logger"
	"github.com/trezcool/ecole/storage/database"
	"github.com/trezcool/ecole/storage/sessions"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbStdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	dbLogger := logsvc.NewRollbarLogger(dbStdLogger, conf)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	store, err := database.NewStore(conf, dbStdLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	sessStore, err := sessions.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	defer func() {
		if err = sessStore.Close(); err != nil {
			logger.Error("Failed to close session store", err)
		}
	}()

	files, err := filestore.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(store.Users, store.Tx, store.Activities, mailSvc)
	subjectSvc := subject.NewService(store.Subjects, store.Tx, store.Activities)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	material.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger)

	seed(ctx, conf, logger, usrSvc, subjectSvc)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Sessions:        session.NewManager(sessStore, conf),
			UserSvc:         usrSvc,
			GroupSvc:        group.NewService(store.Groups, store.Tx, store.Activities),
			SubjectSvc:      subjectSvc,
			MaterialSvc:     material.NewService(store.Materials, store.Groups, store.Subjects, files, store.Tx, store.Activities, logger),
			GradeSvc:        grade.NewService(store.Grades, store.Users, store.Groups, store.Subjects, store.Notifications, store.Tx, store.Activities),
			ScheduleSvc:     schedule.NewService(store.Schedules, store.Users, store.Groups, store.Subjects, store.Tx, store.Activities),
			ActivitySvc:     activity.NewService(store.Activities),
			NotificationSvc: notification.NewService(store.Notifications, store.Tx, store.Activities),
			MessageSvc:      message.NewService(store.Messages, store.Groups, store.Tx, store.Activities),
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// seed creates the default admin and subjects on an empty database.
func seed(ctx context.Context, conf *core.Config, logger core.Logger, usrSvc *user.Service, subjectSvc *subject.Service) {
	created, err := usrSvc.EnsureDefaultAdmin(ctx, conf.Seed.AdminEmail, conf.Seed.AdminPassword)
	if err != nil {
		logger.Error(fmt.Sprintf("seeding default admin: %v", err), err)
	} else if created {
		logger.Warn("Default admin created with the configured seed password; change it after the first sign in")
	}

	n, err := subjectSvc.EnsureDefaults(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("seeding default subjects: %v", err), err)
	} else if n > 0 {
		logger.Info(fmt.Sprintf("%d default subjects created", n))
	}
}
