package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/tests"
)

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, role, isActive, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if isActive != "" {
			v.Add("isActive", isActive)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/api/users?" + v.Encode()
	}

	now := time.Now()
	admin := testutil.CreateUser(t, app.store.Users, "Admin", "Zulu", "admin@test.cd", "", user.RoleAdmin, true, now)
	prof := testutil.CreateUser(t, app.store.Users, "Marie", "Curie", "marie@test.cd", "", user.RoleProfessor, true, now.Add(time.Hour))
	hero := testutil.CreateUser(t, app.store.Users, "Hero", "Alpha", "hero@test.cd", "", user.RoleStudent, true, now.Add(2*time.Hour))
	naughty := testutil.CreateUser(t, app.store.Users, "Naughty", "Dog", "ndog@test.cd", "", user.RoleStudent, false, now.Add(3*time.Hour))
	parent := testutil.CreateUser(t, app.store.Users, "Bob", "Parent", "bob@test.cd", "", user.RoleParent, true, now.Add(4*time.Hour))

	adminCookie := app.login(t, admin)
	empty := marshalList(t)

	tests := []httpTest{
		{name: "auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired)},
		{
			name: "staff required", path: "/api/users", cookie: app.login(t, hero),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "get all (first name)", path: "/api/users", cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, admin, parent, hero, prof, naughty),
		},
		{
			name: "professors can list", path: "/api/users", cookie: app.login(t, prof), wantCode: http.StatusOK,
			wantData: marshalList(t, admin, parent, hero, prof, naughty),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", "", ""), cookie: adminCookie, wantCode: http.StatusOK, wantData: empty},
		{
			name: "search=CUR", path: path("CUR", "", "", ""), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, prof),
		},
		{
			name: "search by email", path: path("bob@", "", "", ""), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, parent),
		},
		{name: "role (unknown)", path: path("", "lol", "", ""), cookie: adminCookie, wantCode: http.StatusOK, wantData: empty},
		{
			name: "role=student", path: path("", user.RoleStudent, "", ""), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, hero, naughty),
		},
		{
			name: "isActive=false", path: path("", "", "false", ""), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, naughty),
		},
		{
			name: "role=student&isActive=true", path: path("", user.RoleStudent, "true", ""), cookie: adminCookie,
			wantCode: http.StatusOK, wantData: marshalList(t, hero),
		},
		// ordering
		{
			name: "order by -createdAt", path: path("", "", "", "-createdAt"), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, parent, naughty, hero, prof, admin),
		},
		{
			name: "order by lastName", path: path("", "", "", "lastName"), cookie: adminCookie, wantCode: http.StatusOK,
			wantData: marshalList(t, hero, prof, naughty, parent, admin),
		},
		{
			name: "order by role,-firstName", path: path("", "", "", "role,-firstName"), cookie: adminCookie,
			wantCode: http.StatusOK, wantData: marshalList(t, admin, parent, prof, naughty, hero),
		},
		{
			name: "unknown ordering fields are ignored", path: path("", "", "", "password"), cookie: adminCookie,
			wantCode: http.StatusOK, wantData: marshalList(t, admin, parent, hero, prof, naughty),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)

	newUser := func(email, role string) []byte {
		return marshalObj(t, user.NewUser{
			Email:           email,
			FirstName:       "Jean",
			LastName:        "Dupont",
			Role:            role,
			Password:        "Kx9-quartz-Lamp",
			ConfirmPassword: "Kx9-quartz-Lamp",
		})
	}

	tests := []httpTest{
		{name: "auth required", body: newUser("new@test.cd", user.RoleStudent), wantCode: http.StatusUnauthorized},
		{
			name: "students cannot create users", cookie: app.login(t, student), body: newUser("new@test.cd", user.RoleStudent),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "professor cannot create admin", cookie: app.login(t, prof), body: newUser("new@test.cd", user.RoleAdmin),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "professor cannot create professor", cookie: app.login(t, prof), body: newUser("new@test.cd", user.RoleProfessor),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "invalid role", cookie: app.login(t, admin), body: newUser("new@test.cd", "janitor"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"role": "role must be one of: admin, professor, student, parent"}),
		},
		{
			name: "duplicate email", cookie: app.login(t, admin), body: newUser("HERO@test.cd", user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/users"
			app.run(t, tt)
		})
	}
	assert.Empty(t, app.logs(t, activity.QueryFilter{}))
	assert.Empty(t, app.mailSvc.Sent())

	t.Run("professor creates parent", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: "/api/users", cookie: app.login(t, prof),
			body: newUser("parent@test.cd", user.RoleParent), wantCode: http.StatusCreated,
		})

		var created map[string]interface{}
		decode(t, rec, &created)
		assert.Equal(t, "parent@test.cd", created["email"])
		assert.Equal(t, user.RoleParent, created["role"])
		assert.Equal(t, prof.ID, created["createdBy"])
		assert.Equal(t, true, created["mustChangePassword"])
		assert.NotContains(t, created, "password")

		logs := app.logs(t, activity.QueryFilter{EntityID: created["id"].(string)})
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionCreateUser, logs[0].Action)
		assert.Equal(t, activity.EntityUser, logs[0].EntityType)
		assert.Equal(t, prof.ID, logs[0].UserID)
		assert.NotContains(t, logs[0].Details, "password")

		sent := app.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "parent@test.cd", sent[0].To[0].Address)
		assert.NotContains(t, sent[0].TextContent, "Kx9-quartz-Lamp")
		assert.NotContains(t, sent[0].HTMLContent, "Kx9-quartz-Lamp")
	})
}

func Test_userApi_retrieveUpdateDestroy(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	other := app.createUser(t, "Other", "other@test.cd", user.RoleAdmin)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	adminCookie := app.login(t, admin)
	profCookie := app.login(t, prof)

	t.Run("retrieve", func(t *testing.T) {
		app.run(t, httpTest{path: "/api/users/" + student.ID, cookie: profCookie, wantCode: http.StatusOK, wantData: marshalObj(t, student)})
		app.run(t, httpTest{
			path: "/api/users/unknown", cookie: adminCookie,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "user not found"}),
		})
	})

	t.Run("update", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "professor cannot update admin", path: "/api/users/" + other.ID, cookie: profCookie,
				body: []byte(`{"firstName":"Hacked"}`), wantCode: http.StatusForbidden,
			},
			{
				name: "professor cannot promote student", path: "/api/users/" + student.ID, cookie: profCookie,
				body: []byte(`{"role":"admin"}`), wantCode: http.StatusForbidden,
			},
			{
				name: "blank name", path: "/api/users/" + student.ID, cookie: profCookie,
				body: []byte(`{"firstName":"  "}`), wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, map[string]string{"firstName": "this field cannot be blank"}),
			},
			{
				name: "unknown user", path: "/api/users/unknown", cookie: adminCookie,
				body: []byte(`{"firstName":"Ghost"}`), wantCode: http.StatusNotFound,
			},
			{
				name: "professor updates student", path: "/api/users/" + student.ID, cookie: profCookie,
				body: []byte(`{"lastName":"Tamba","isActive":false}`), wantCode: http.StatusOK,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method = http.MethodPut
				app.run(t, tt)
			})
		}

		rec := app.run(t, httpTest{path: "/api/users/" + student.ID, cookie: adminCookie, wantCode: http.StatusOK})
		var got user.User
		decode(t, rec, &got)
		assert.Equal(t, "Tamba", got.LastName)
		assert.Equal(t, "Hero", got.FirstName)
		assert.False(t, got.IsActive)
		assert.Len(t, app.logs(t, activity.QueryFilter{EntityID: student.ID}), 1)
	})

	t.Run("destroy", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "nobody deletes themselves", path: "/api/users/" + admin.ID, cookie: adminCookie,
				wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: user.ErrDeleteSelf.Error()}),
			},
			{name: "professor cannot delete admin", path: "/api/users/" + admin.ID, cookie: profCookie, wantCode: http.StatusForbidden},
			{name: "unknown user", path: "/api/users/unknown", cookie: adminCookie, wantCode: http.StatusNotFound},
			{name: "admin deletes professor", path: "/api/users/" + prof.ID, cookie: adminCookie, wantCode: http.StatusNoContent},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method = http.MethodDelete
				app.run(t, tt)
			})
		}

		app.run(t, httpTest{path: "/api/users/" + prof.ID, cookie: adminCookie, wantCode: http.StatusNotFound})
		logs := app.logs(t, activity.QueryFilter{EntityID: prof.ID})
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionDeleteUser, logs[0].Action)

		// the session of a deleted user no longer authenticates
		app.run(t, httpTest{path: "/api/groups", cookie: profCookie, wantCode: http.StatusUnauthorized})
	})
}
