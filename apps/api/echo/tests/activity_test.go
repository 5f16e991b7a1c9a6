package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/user"
)

func Test_activityApi_groupMutations(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	adminCookie := app.login(t, admin)

	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/groups", cookie: app.login(t, student),
		body: []byte(`{"name":"6ème A","academicYear":"2024-2025"}`), wantCode: http.StatusForbidden,
	})
	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/groups", cookie: adminCookie,
		body: []byte(`{"name":"","academicYear":"2024-2025"}`), wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, map[string]string{"name": "this field is required"}),
	})

	var grp group.Group
	rec := app.run(t, httpTest{
		method: http.MethodPost, path: "/api/groups", cookie: app.login(t, prof),
		body: []byte(`{"name":"6ème A","academicYear":"2024-2025"}`), wantCode: http.StatusCreated,
	})
	decode(t, rec, &grp)
	assert.True(t, grp.IsActive)

	path := "/api/groups/" + grp.ID
	app.run(t, httpTest{
		method: http.MethodPut, path: path, cookie: adminCookie,
		body: []byte(`{"name":"   "}`), wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, map[string]string{"name": "this field cannot be blank"}),
	})
	app.run(t, httpTest{
		method: http.MethodPut, path: path, cookie: adminCookie,
		body: []byte(`{"description":"Classe de sixième"}`), wantCode: http.StatusOK,
	})
	app.run(t, httpTest{method: http.MethodDelete, path: path, cookie: adminCookie, wantCode: http.StatusNoContent})
	app.run(t, httpTest{method: http.MethodDelete, path: path, cookie: adminCookie, wantCode: http.StatusNotFound})

	t.Run("one entry per successful mutation", func(t *testing.T) {
		rec := app.run(t, httpTest{path: "/api/activities?entityId=" + grp.ID, cookie: adminCookie, wantCode: http.StatusOK})
		var logs []activity.Log
		decode(t, rec, &logs)

		actions := make(map[string]string)
		for _, l := range logs {
			assert.Equal(t, activity.EntityGroup, l.EntityType)
			assert.Equal(t, grp.ID, l.EntityID)
			actions[l.Action] = l.UserID
		}
		assert.Len(t, logs, 3)
		assert.Equal(t, map[string]string{
			activity.ActionCreateGroup: prof.ID,
			activity.ActionUpdateGroup: admin.ID,
			activity.ActionDeleteGroup: admin.ID,
		}, actions)
	})

	t.Run("filter by user", func(t *testing.T) {
		rec := app.run(t, httpTest{path: "/api/activities?userId=" + prof.ID, cookie: adminCookie, wantCode: http.StatusOK})
		var logs []activity.Log
		decode(t, rec, &logs)
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionCreateGroup, logs[0].Action)
	})

	t.Run("students cannot read the log", func(t *testing.T) {
		app.run(t, httpTest{
			path: "/api/activities", cookie: app.login(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		})
	})
}

func Test_notificationApi(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	other := app.createUser(t, "Naughty", "ndog@test.cd", user.RoleStudent)
	studentCookie := app.login(t, student)

	ctx := context.Background()
	n, err := app.store.Notifications.CreateNotification(ctx, notification.Notification{
		UserID:  student.ID,
		Title:   "New grade",
		Message: "You received 15/20 in Physique: Interrogation 1",
		Type:    notification.TypeSuccess,
	})
	require.NoError(t, err)

	app.run(t, httpTest{path: "/api/notifications", cookie: studentCookie, wantCode: http.StatusOK, wantData: marshalList(t, n)})
	app.run(t, httpTest{path: "/api/notifications", cookie: app.login(t, other), wantCode: http.StatusOK, wantData: marshalList(t)})

	readPath := "/api/notifications/" + n.ID + "/read"
	app.run(t, httpTest{
		method: http.MethodPut, path: readPath, cookie: app.login(t, other),
		wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "notification not found"}),
	})

	rec := app.run(t, httpTest{method: http.MethodPut, path: readPath, cookie: studentCookie, wantCode: http.StatusOK})
	var got notification.Notification
	decode(t, rec, &got)
	assert.True(t, got.IsRead)

	logs := app.logs(t, activity.QueryFilter{EntityID: n.ID})
	require.Len(t, logs, 1)
	assert.Equal(t, activity.ActionReadNotification, logs[0].Action)
	assert.Equal(t, student.ID, logs[0].UserID)
}
