package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/tests"
)

func Test_messageApi(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	grp := testutil.CreateGroup(t, app.store.Groups, "6ème A")
	profCookie := app.login(t, prof)
	studentCookie := app.login(t, student)
	boardPath := "/api/groups/" + grp.ID + "/messages"

	app.run(t, httpTest{
		method: http.MethodPost, path: boardPath, cookie: studentCookie,
		body: []byte(`{"title":"Hi","content":"Hello"}`), wantCode: http.StatusForbidden,
		wantData: marshalObj(t, errPermissionDenied),
	})
	app.run(t, httpTest{
		method: http.MethodPost, path: boardPath, cookie: profCookie,
		body: []byte(`{"title":" ","content":"Hello"}`), wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, map[string]string{"title": "this field is required"}),
	})
	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/groups/unknown/messages", cookie: profCookie,
		body: []byte(`{"title":"Hi","content":"Hello"}`), wantCode: http.StatusNotFound,
	})

	var msg message.Message
	rec := app.run(t, httpTest{
		method: http.MethodPost, path: boardPath, cookie: profCookie,
		body: []byte(`{"title":"Sortie scolaire","content":"Rendez-vous à 8h","isImportant":true}`), wantCode: http.StatusCreated,
	})
	decode(t, rec, &msg)
	assert.Equal(t, prof.ID, msg.AuthorID)
	assert.Equal(t, grp.ID, msg.GroupID)
	assert.True(t, msg.IsImportant)

	app.run(t, httpTest{path: boardPath, cookie: studentCookie, wantCode: http.StatusOK, wantData: marshalList(t, msg)})

	msgPath := "/api/messages/" + msg.ID

	t.Run("likes", func(t *testing.T) {
		tests := []httpTest{
			{name: "like", method: http.MethodPost, wantCode: http.StatusOK, wantData: []byte(`{"likes":1}`)},
			{
				name: "like twice", method: http.MethodPost, wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, httpErr{Error: message.ErrAlreadyLiked.Error()}),
			},
			{name: "unlike", method: http.MethodDelete, wantCode: http.StatusOK, wantData: []byte(`{"likes":0}`)},
			{
				name: "unlike twice", method: http.MethodDelete, wantCode: http.StatusNotFound,
				wantData: marshalObj(t, httpErr{Error: "like not found"}),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.path = msgPath + "/like"
				tt.cookie = studentCookie
				app.run(t, tt)
			})
		}

		app.run(t, httpTest{method: http.MethodPost, path: msgPath + "/like", cookie: studentCookie, wantData: []byte(`{"likes":1}`), wantCode: http.StatusOK})
		app.run(t, httpTest{method: http.MethodPost, path: msgPath + "/like", cookie: profCookie, wantData: []byte(`{"likes":2}`), wantCode: http.StatusOK})
		app.run(t, httpTest{method: http.MethodPost, path: "/api/messages/unknown/like", cookie: profCookie, wantCode: http.StatusNotFound})
	})

	t.Run("comments", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPost, path: msgPath + "/comments", cookie: studentCookie,
			body: []byte(`{"content":""}`), wantCode: http.StatusBadRequest,
		})

		var c message.Comment
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: msgPath + "/comments", cookie: studentCookie,
			body: []byte(`{"content":"  Merci !  "}`), wantCode: http.StatusCreated,
		})
		decode(t, rec, &c)
		assert.Equal(t, "Merci !", c.Content)
		assert.Equal(t, student.ID, c.AuthorID)

		app.run(t, httpTest{path: msgPath + "/comments", cookie: profCookie, wantCode: http.StatusOK, wantData: marshalList(t, c)})

		logs := app.logs(t, activity.QueryFilter{EntityID: c.ID})
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionCreateComment, logs[0].Action)
		assert.Equal(t, activity.EntityComment, logs[0].EntityType)
	})

	t.Run("delete", func(t *testing.T) {
		app.run(t, httpTest{method: http.MethodDelete, path: msgPath, cookie: studentCookie, wantCode: http.StatusForbidden})

		other := app.createUser(t, "Jean", "jean@test.cd", user.RoleProfessor)
		app.run(t, httpTest{method: http.MethodDelete, path: msgPath, cookie: app.login(t, other), wantCode: http.StatusForbidden})

		app.run(t, httpTest{method: http.MethodDelete, path: msgPath, cookie: app.login(t, admin), wantCode: http.StatusNoContent})
		app.run(t, httpTest{method: http.MethodDelete, path: msgPath, cookie: profCookie, wantCode: http.StatusNotFound})
		app.run(t, httpTest{path: boardPath, cookie: studentCookie, wantCode: http.StatusOK, wantData: marshalList(t)})

		var deletes int
		for _, l := range app.logs(t, activity.QueryFilter{EntityID: msg.ID}) {
			if l.Action == activity.ActionDeleteMessage {
				deletes++
				assert.Equal(t, admin.ID, l.UserID)
			}
		}
		assert.Equal(t, 1, deletes)
	})
}
