// Package logsvc reports log entries to Rollbar and mirrors them on a standard logger.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/user"
)

// RollbarLogger sends entries to Rollbar once enabled. Every entry is also written to std.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable turns reporting to Rollbar on or off. It is off in DEV and TEST.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry splits args into the Rollbar arguments and the acting user, if any.
// Rollbar accepts an error and a map of extra data next to the message; nil args are dropped.
func entry(msg string, args []interface{}) (rbArgs []interface{}, actor *user.User) {
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if actor == nil {
				actor = &a
			}
		case *user.User:
			if actor == nil && a != nil {
				actor = a
			}
		case nil:
		default:
			rbArgs = append(rbArgs, a)
		}
	}
	return rbArgs, actor
}

func (l RollbarLogger) report(report func(...interface{}), level, msg string, args []interface{}) {
	rbArgs, actor := entry(msg, args)
	if actor != nil {
		rollbar.SetPerson(actor.ID, actor.FullName(), actor.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(rbArgs...)

	// the actor is only identified by ID in local logs
	if actor != nil {
		l.std.Printf("[%s] %s (user %s)", level, msg, actor.ID)
	} else {
		l.std.Printf("[%s] %s", level, msg)
	}
	for _, arg := range rbArgs[1:] {
		l.std.Printf("%+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, "DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, "INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, "WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, "ERROR", msg, args)
}

// Fatal reports msg as critical, then exits.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, "FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
