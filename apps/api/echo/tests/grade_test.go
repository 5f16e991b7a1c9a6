package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/services/gradesheet"
	"github.com/trezcool/ecole/tests"
)

func Test_gradeApi(t *testing.T) {
	app := setup(t)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	grp := testutil.CreateGroup(t, app.store.Groups, "6ème A")
	sub := testutil.CreateSubject(t, app.store.Subjects, "Physique", "PHYS")
	profCookie := app.login(t, prof)

	newGrade := func(studentID string, value, max float64) []byte {
		return marshalObj(t, map[string]interface{}{
			"studentId":  studentID,
			"subjectId":  sub.ID,
			"groupId":    grp.ID,
			"gradeValue": value,
			"maxValue":   max,
			"gradeType":  grade.TypeExam,
			"title":      "Interrogation 1",
		})
	}

	tests := []httpTest{
		{
			name: "students cannot grade", cookie: app.login(t, student), body: newGrade(student.ID, 12, 20),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "value above max", cookie: profCookie, body: newGrade(student.ID, 25, 20), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"gradeValue": "gradeValue cannot be greater than maxValue"}),
		},
		{
			name: "negative value", cookie: profCookie, body: newGrade(student.ID, -1, 20), wantCode: http.StatusBadRequest,
		},
		{
			name: "graded user must be a student", cookie: profCookie, body: newGrade(prof.ID, 12, 20),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown group", cookie: profCookie, wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]interface{}{
				"studentId": student.ID, "subjectId": sub.ID, "groupId": "5b3f8bd4-8b0a-4f57-9b8e-1f1e1b2d3c4d",
				"gradeValue": 12, "gradeType": grade.TypeQuiz, "title": "Quiz",
			}),
			wantData: marshalObj(t, map[string]string{"groupId": "group not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/grades"
			app.run(t, tt)
		})
	}

	ctx := context.Background()
	grades, err := app.store.Grades.QueryGrades(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, grades)
	assert.Empty(t, app.logs(t, activity.QueryFilter{EntityType: activity.EntityGrade}))

	var created grade.Grade
	t.Run("create", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: "/api/grades", cookie: profCookie,
			body: newGrade(student.ID, 15.5, 20), wantCode: http.StatusCreated,
		})
		decode(t, rec, &created)
		assert.Equal(t, 15.5, created.GradeValue)
		assert.Equal(t, 20.0, created.MaxValue)
		assert.Equal(t, prof.ID, created.GradedBy)

		logs := app.logs(t, activity.QueryFilter{EntityID: created.ID})
		require.Len(t, logs, 1)
		assert.Equal(t, activity.ActionCreateGrade, logs[0].Action)
		assert.Equal(t, prof.ID, logs[0].UserID)

		notifs, err := app.store.Notifications.QueryUserNotifications(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.TypeSuccess, notifs[0].Type)
		assert.Contains(t, notifs[0].Message, "Physique")
		assert.False(t, notifs[0].IsRead)
	})

	t.Run("query", func(t *testing.T) {
		app.run(t, httpTest{
			path: "/api/grades?studentId=" + student.ID, cookie: app.login(t, student),
			wantCode: http.StatusOK, wantData: marshalList(t, created),
		})
		app.run(t, httpTest{
			path: "/api/grades?studentId=" + prof.ID, cookie: profCookie,
			wantCode: http.StatusOK, wantData: marshalList(t),
		})
	})

	t.Run("update", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/grades/" + created.ID, cookie: profCookie,
			body: []byte(`{"gradeValue":21}`), wantCode: http.StatusBadRequest,
		})
		rec := app.run(t, httpTest{
			method: http.MethodPut, path: "/api/grades/" + created.ID, cookie: profCookie,
			body: []byte(`{"gradeValue":17.25,"title":"Interrogation 1 (corrigée)"}`), wantCode: http.StatusOK,
		})
		var got grade.Grade
		decode(t, rec, &got)
		assert.Equal(t, 17.25, got.GradeValue)
		assert.Equal(t, "Interrogation 1 (corrigée)", got.Title)
		assert.Len(t, app.logs(t, activity.QueryFilter{EntityID: created.ID}), 2)
	})

	t.Run("export and import", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/api/grades/export", profCookie, nil)
		rec := app.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, gradesheet.ContentType, rec.Header().Get("Content-Type"))

		rows, err := gradesheet.Import(rec.Body)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, student.ID, rows[0].StudentID)

		rec = app.run(t, httpTest{path: "/api/grades/export", cookie: app.login(t, student), wantCode: http.StatusForbidden})

		exported := app.do(newRequest(http.MethodGet, "/api/grades/export", profCookie, nil)).Body.Bytes()
		rec = app.do(newMultipartRequest(t, "/api/grades/import", profCookie, nil, "grades.xlsx", gradesheet.ContentType, exported))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var imported []grade.Grade
		decode(t, rec, &imported)
		require.Len(t, imported, 1)
		assert.NotEqual(t, created.ID, imported[0].ID)
		assert.Equal(t, 17.25, imported[0].GradeValue)

		logs := app.logs(t, activity.QueryFilter{UserID: prof.ID, EntityType: activity.EntityGrade})
		var importLogs int
		for _, l := range logs {
			if l.Action == activity.ActionImportGrades {
				importLogs++
				assert.EqualValues(t, 1, l.Details["count"])
			}
		}
		assert.Equal(t, 1, importLogs)

		notifs, err := app.store.Notifications.QueryUserNotifications(ctx, student.ID)
		require.NoError(t, err)
		assert.Len(t, notifs, 2)
	})

	t.Run("import rejects bad files", func(t *testing.T) {
		app.run(t, httpTest{method: http.MethodPost, path: "/api/grades/import", cookie: profCookie, wantCode: http.StatusBadRequest})
		rec := app.do(newMultipartRequest(t, "/api/grades/import", profCookie, nil, "grades.xlsx", gradesheet.ContentType, []byte("nope")))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/grades/" + created.ID, cookie: app.login(t, student), wantCode: http.StatusForbidden})
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/grades/" + created.ID, cookie: profCookie, wantCode: http.StatusNoContent})
		app.run(t, httpTest{path: "/api/grades/" + created.ID, cookie: profCookie, wantCode: http.StatusNotFound})

		logs := app.logs(t, activity.QueryFilter{EntityID: created.ID})
		var deleted bool
		for _, l := range logs {
			deleted = deleted || l.Action == activity.ActionDeleteGrade
		}
		assert.True(t, deleted)
	})
}
