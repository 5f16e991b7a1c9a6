package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/tests"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	testutil.CreateUser(t, app.store.Users, "Naughty", "Dog", "ndog@test.cd", "secret-pwd-42", user.RoleStudent, false)

	creds := func(email, pwd string) []byte {
		return marshalObj(t, user.LoginCredentials{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", body: creds("nobody@test.cd", "secret-pwd-42"),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidCredentials),
		},
		{
			name: "wrong password", body: creds("admin@test.cd", "wrong"),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidCredentials),
		},
		{
			name: "inactive account", body: creds("ndog@test.cd", "secret-pwd-42"),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidCredentials),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/login"
			app.run(t, tt)
		})
	}
	assert.Empty(t, app.logs(t, activity.QueryFilter{}), "failed logins must not be logged")

	t.Run("success", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodPost, "/api/auth/login", nil, creds(" ADMIN@test.cd ", "secret-pwd-42")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp map[string]map[string]interface{}
		decode(t, rec, &resp)
		assert.Equal(t, admin.ID, resp["user"]["id"])
		assert.NotContains(t, resp["user"], "password")
		assert.NotContains(t, resp["user"], "passwordHash")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, app.conf.Session.CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.False(t, cookies[0].Secure)
		assert.InDelta(t, 24*60*60, cookies[0].MaxAge, 5)

		// the cookie opens the session
		rec = app.do(newRequest(http.MethodGet, "/api/auth/me", cookies[0], nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		logs := app.logs(t, activity.QueryFilter{UserID: admin.ID})
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionLogin, logs[0].Action)
	})
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	gone := app.createUser(t, "Gone", "gone@test.cd", user.RoleStudent)
	goneCookie := app.login(t, gone)
	require.NoError(t, app.store.Users.DeleteUser(context.Background(), gone.ID))

	// deactivated after signing in
	benched := app.createUser(t, "Benched", "benched@test.cd", user.RoleStudent)
	benchedCookie := app.login(t, benched)
	benched.IsActive = false
	_, err := app.store.Users.UpdateUser(context.Background(), benched)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "no session", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired)},
		{
			name: "forged session", cookie: &http.Cookie{Name: app.conf.Session.CookieName, Value: "forged"},
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired),
		},
		{name: "deleted user", cookie: goneCookie, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired)},
		{name: "deactivated user", cookie: benchedCookie, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired)},
		{name: "ok", cookie: app.login(t, admin), wantCode: http.StatusOK, wantData: marshalObj(t, admin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/api/auth/me"
			app.run(t, tt)
		})
	}
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	cookie := app.login(t, admin)
	logouts := func() []activity.Log {
		var found []activity.Log
		for _, l := range app.logs(t, activity.QueryFilter{UserID: admin.ID}) {
			if l.Action == activity.ActionLogout {
				found = append(found, l)
			}
		}
		return found
	}

	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", cookie: cookie, wantCode: http.StatusOK})
	assert.Len(t, logouts(), 1)

	// the session is gone
	app.run(t, httpTest{path: "/api/auth/me", cookie: cookie, wantCode: http.StatusUnauthorized})

	// logging out again is not logged
	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", cookie: cookie, wantCode: http.StatusOK})
	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", wantCode: http.StatusOK})
	assert.Len(t, logouts(), 1)
}

func Test_authApi_changePassword(t *testing.T) {
	app := setup(t)
	prof := testutil.CreateUser(t, app.store.Users, "Marie", "Curie", "marie@test.cd", "secret-pwd-42", user.RoleProfessor, true)
	prof.MustChangePassword = true
	_, err := app.store.Users.UpdateUser(context.Background(), prof)
	require.NoError(t, err)
	cookie := app.login(t, prof)

	body := func(current, pwd, confirm string) []byte {
		return marshalObj(t, user.ChangePassword{CurrentPassword: current, NewPassword: pwd, ConfirmPassword: confirm})
	}

	tests := []httpTest{
		{name: "auth required", body: body("secret-pwd-42", "N3w-Passphrase!", "N3w-Passphrase!"), wantCode: http.StatusUnauthorized},
		{
			name: "wrong current password", cookie: cookie, body: body("wrong", "N3w-Passphrase!", "N3w-Passphrase!"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"currentPassword": user.ErrWrongPassword.Error()}),
		},
		{
			name: "confirmation mismatch", cookie: cookie, body: body("secret-pwd-42", "N3w-Passphrase!", "other"),
			wantCode: http.StatusBadRequest,
		},
		{name: "ok", cookie: cookie, body: body("secret-pwd-42", "N3w-Passphrase!", "N3w-Passphrase!"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/change-password"
			app.run(t, tt)
		})
	}

	usr, err := app.store.Users.GetUserByID(context.Background(), prof.ID)
	require.NoError(t, err)
	assert.False(t, usr.MustChangePassword)
	assert.NoError(t, usr.CheckPassword("N3w-Passphrase!"))
}
