package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/storage"
	"github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/tests"
)

func setup(t *testing.T) (*commandLine, *storage.Store) {
	t.Helper()
	user.PasswordHashCost = bcrypt.MinCost

	conf := core.NewConfig()
	store := inmemdb.NewStore()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		conf:       conf,
		db:         new(sql.DB),
		usrSvc:     user.NewService(store.Users, store.Tx, store.Activities, nil),
		subjectSvc: subject.NewService(store.Subjects, store.Tx, store.Activities),
		validate:   validate,
	}, store
}

type cliTest struct {
	name        string
	args        []string // without program name
	pwd         string
	wantErr     error
	wantErrStr  string
	wantInvalid bool
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantInvalid:
		var vErrs validator.ValidationErrors
		assert.True(t, errors.As(err, &vErrs), "want validation errors, got %v", err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_rooms", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	t.Run("memory engine", func(t *testing.T) {
		cli.db = nil
		assert.Equal(t, errNoDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, store := setup(t)
	testutil.CreateUser(t, store.Users, "Taken", "User", "taken@test.cd", "", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{
			name: "no password", args: []string{"adduser", "-email", "prof@test.cd", "-firstname", "Marie", "-lastname", "Curie"},
			wantErr: errHelp,
		},
		{
			name: "email taken", args: []string{"adduser", "-email", "TAKEN@test.cd", "-firstname", "Marie", "-lastname", "Curie"},
			pwd: "Kx9-quartz-Lamp", wantErrStr: user.ErrEmailExists.Error(),
		},
		{
			name: "weak password", args: []string{"adduser", "-email", "prof@test.cd", "-firstname", "Marie", "-lastname", "Curie"},
			pwd: "abc", wantInvalid: true,
		},
		{
			name: "created", pwd: "Kx9-quartz-Lamp",
			args: []string{"adduser", "-email", "prof@test.cd", "-role", "professor", "-firstname", "Marie", "-lastname", "Curie"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := store.Users.GetUserByEmail(context.Background(), "prof@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleProfessor, usr.Role)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.MustChangePassword)
	assert.NoError(t, usr.CheckPassword("Kx9-quartz-Lamp"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, store := setup(t)
	usr := testutil.CreateUser(t, store.Users, "User", "Awe", "awe@test.cd", "old-secret-9", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "new-secret-7", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", " AWE@test.cd "}, pwd: "new-secret-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	refreshed, err := store.Users.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("new-secret-7"))
	assert.True(t, refreshed.MustChangePassword)
}

func Test_commandLine_seed(t *testing.T) {
	cli, store := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, cli.run([]string{"admin", "seed"}))
	}

	admin, err := store.Users.GetUserByEmail(ctx, cli.conf.Seed.AdminEmail)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.NoError(t, admin.CheckPassword(cli.conf.Seed.AdminPassword))

	subjects, err := store.Subjects.QuerySubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, len(subject.Defaults))
}
