package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/tests"
)

func Test_scheduleApi_timetable(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	adminCookie := app.login(t, admin)

	var sub subject.Subject
	rec := app.run(t, httpTest{
		method: http.MethodPost, path: "/api/subjects", cookie: adminCookie,
		body: []byte(`{"name":"Mathématiques","code":"math"}`), wantCode: http.StatusCreated,
	})
	decode(t, rec, &sub)
	assert.Equal(t, "MATH", sub.Code)
	assert.Equal(t, subject.DefaultColor, sub.Color)

	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/subjects", cookie: adminCookie,
		body: []byte(`{"name":"Maths bis","code":"MATH"}`), wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, map[string]string{"code": subject.ErrCodeExists.Error()}),
	})

	var grp group.Group
	rec = app.run(t, httpTest{
		method: http.MethodPost, path: "/api/groups", cookie: adminCookie,
		body: []byte(`{"name":"6ème A","academicYear":"2024-2025"}`), wantCode: http.StatusCreated,
	})
	decode(t, rec, &grp)

	newSchedule := func(professorID string, day int, start, end string) []byte {
		return marshalObj(t, map[string]interface{}{
			"groupId":     grp.ID,
			"subjectId":   sub.ID,
			"professorId": professorID,
			"dayOfWeek":   day,
			"startTime":   start,
			"endTime":     end,
			"room":        "B12",
		})
	}

	tests := []httpTest{
		{
			name: "students cannot schedule", cookie: app.login(t, student), body: newSchedule(prof.ID, 1, "09:00", "10:30"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermissionDenied),
		},
		{
			name: "end before start", cookie: adminCookie, body: newSchedule(prof.ID, 1, "10:30", "09:00"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"endTime": "endTime must be after startTime"}),
		},
		{
			name: "end equals start", cookie: adminCookie, body: newSchedule(prof.ID, 1, "09:00", "09:00"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed time", cookie: adminCookie, body: newSchedule(prof.ID, 1, "9h", "10:30"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"startTime": "startTime must be a time in HH:MM format"}),
		},
		{
			name: "day out of range", cookie: adminCookie, body: newSchedule(prof.ID, 7, "09:00", "10:30"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "professor must be a professor", cookie: adminCookie, body: newSchedule(student.ID, 1, "09:00", "10:30"),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/schedules"
			app.run(t, tt)
		})
	}
	assert.Empty(t, app.logs(t, activity.QueryFilter{EntityType: activity.EntitySchedule}))

	var slot schedule.Schedule
	rec = app.run(t, httpTest{
		method: http.MethodPost, path: "/api/schedules", cookie: adminCookie,
		body: newSchedule(prof.ID, 1, "09:00", "10:30"), wantCode: http.StatusCreated,
	})
	decode(t, rec, &slot)
	assert.Equal(t, 1, slot.DayOfWeek)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, "10:30", slot.EndTime)
	assert.True(t, slot.IsActive)

	app.run(t, httpTest{
		path: "/api/schedules?groupId=" + grp.ID, cookie: app.login(t, student),
		wantCode: http.StatusOK, wantData: marshalList(t, slot),
	})

	t.Run("overlapping slots are allowed", func(t *testing.T) {
		other := testutil.CreateGroup(t, app.store.Groups, "6ème B")
		body := marshalObj(t, map[string]interface{}{
			"groupId": other.ID, "subjectId": sub.ID, "professorId": prof.ID,
			"dayOfWeek": 1, "startTime": "10:00", "endTime": "11:00",
		})
		app.run(t, httpTest{method: http.MethodPost, path: "/api/schedules", cookie: adminCookie, body: body, wantCode: http.StatusCreated})

		rec := app.run(t, httpTest{path: "/api/schedules?professorId=" + prof.ID, cookie: adminCookie, wantCode: http.StatusOK})
		var got []schedule.Schedule
		decode(t, rec, &got)
		require.Len(t, got, 2)
		assert.Equal(t, slot.ID, got[0].ID)

		app.run(t, httpTest{
			path: "/api/schedules?groupId=" + grp.ID, cookie: adminCookie,
			wantCode: http.StatusOK, wantData: marshalList(t, slot),
		})
	})

	t.Run("update and delete", func(t *testing.T) {
		path := "/api/schedules/" + slot.ID
		app.run(t, httpTest{
			method: http.MethodPut, path: path, cookie: adminCookie,
			body: []byte(`{"endTime":"08:00"}`), wantCode: http.StatusBadRequest,
		})
		rec := app.run(t, httpTest{
			method: http.MethodPut, path: path, cookie: adminCookie,
			body: []byte(`{"room":"C3","endTime":"11:00"}`), wantCode: http.StatusOK,
		})
		var got schedule.Schedule
		decode(t, rec, &got)
		assert.Equal(t, "C3", got.Room)
		assert.Equal(t, "11:00", got.EndTime)

		app.run(t, httpTest{method: http.MethodDelete, path: path, cookie: app.login(t, student), wantCode: http.StatusForbidden})
		app.run(t, httpTest{method: http.MethodDelete, path: path, cookie: adminCookie, wantCode: http.StatusNoContent})
		app.run(t, httpTest{path: path, cookie: adminCookie, wantCode: http.StatusNotFound})

		logs := app.logs(t, activity.QueryFilter{EntityID: slot.ID})
		actions := make(map[string]int)
		for _, l := range logs {
			actions[l.Action]++
		}
		assert.Equal(t, map[string]int{
			activity.ActionCreateSchedule: 1,
			activity.ActionUpdateSchedule: 1,
			activity.ActionDeleteSchedule: 1,
		}, actions)
	})
}
