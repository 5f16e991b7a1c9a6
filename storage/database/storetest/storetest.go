// Package storetest checks that a storage backend honours the repository contracts.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/storage"
	testutil "github.com/trezcool/ecole/tests"
)

// Run runs the contract suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) *storage.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s *storage.Store)
	}{
		{"users", testUsers},
		{"groups and subjects", testGroupsAndSubjects},
		{"materials", testMaterials},
		{"grades", testGrades},
		{"schedules", testSchedules},
		{"activities", testActivities},
		{"notifications", testNotifications},
		{"messages", testMessages},
		{"transactions", testTransactions},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func ids[T any](rows []T, id func(T) string) []string {
	res := make([]string, 0, len(rows))
	for _, r := range rows {
		res = append(res, id(r))
	}
	return res
}

func testUsers(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	repo := s.Users
	now := core.Now()

	zoe := testutil.CreateUser(t, repo, "Zoe", "Adams", "zoe@ecole.com", "", user.RoleStudent, true, now)
	ann := testutil.CreateUser(t, repo, "Ann", "Moore", "ann@ecole.com", "pwd123", user.RoleProfessor, true, now.Add(time.Second))
	ziegler := testutil.CreateUser(t, repo, "Max", "Ziegler", "max@ecole.com", "", user.RoleStudent, false, now.Add(2*time.Second))

	t.Run("create assigns ids", func(t *testing.T) {
		assert.NotEmpty(t, zoe.ID)
		assert.NotEqual(t, zoe.ID, ann.ID)
	})

	t.Run("email is unique", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, user.User{Email: "zoe@ecole.com", FirstName: "Z", LastName: "A", Role: user.RoleStudent})
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, ann.Email, got.Email)
		assert.NoError(t, got.CheckPassword("pwd123"))
		assert.True(t, got.CreatedAt.Equal(ann.CreatedAt))

		got, err = repo.GetUserByEmail(ctx, "max@ecole.com")
		require.NoError(t, err)
		assert.Equal(t, ziegler.ID, got.ID)

		_, err = repo.GetUserByID(ctx, "unknown")
		assert.True(t, core.IsNotFound(err))
		_, err = repo.GetUserByEmail(ctx, "nobody@ecole.com")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("query", func(t *testing.T) {
		inactive := false
		tests := []struct {
			name     string
			filter   *user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{"all, by first name", nil, nil, []string{ann.ID, ziegler.ID, zoe.ID}},
			{"by role", &user.QueryFilter{Role: user.RoleStudent}, nil, []string{ziegler.ID, zoe.ID}},
			{"by status", &user.QueryFilter{IsActive: &inactive}, nil, []string{ziegler.ID}},
			{"search last name", &user.QueryFilter{Search: "zieg"}, nil, []string{ziegler.ID}},
			{"search email", &user.QueryFilter{Search: "ann@"}, nil, []string{ann.ID}},
			{"by last name desc", nil, []core.DBOrdering{{Field: "lastName"}}, []string{ziegler.ID, ann.ID, zoe.ID}},
			{"unknown ordering field", nil, []core.DBOrdering{{Field: "password"}}, []string{ann.ID, ziegler.ID, zoe.ID}},
		}
		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tc.filter, tc.ordering)
				require.NoError(t, err)
				assert.Equal(t, tc.want, ids(users, func(u user.User) string { return u.ID }))
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		upd := ziegler
		upd.Role = user.RoleParent
		upd.IsActive = true
		got, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(ziegler.UpdatedAt) || got.UpdatedAt.Equal(ziegler.UpdatedAt))

		stored, err := repo.GetUserByID(ctx, ziegler.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleParent, stored.Role)
		assert.True(t, stored.IsActive)

		upd.Email = zoe.Email
		_, err = repo.UpdateUser(ctx, upd)
		assert.Equal(t, user.ErrEmailExists, err)

		_, err = repo.UpdateUser(ctx, user.User{ID: "unknown", Email: "x@ecole.com"})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUser(ctx, zoe.ID))
		_, err := repo.GetUserByID(ctx, zoe.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(repo.DeleteUser(ctx, zoe.ID)))
	})
}

func testGroupsAndSubjects(t *testing.T, s *storage.Store) {
	ctx := context.Background()

	b := testutil.CreateGroup(t, s.Groups, "Terminale B")
	a := testutil.CreateGroup(t, s.Groups, "Seconde A")

	groups, err := s.Groups.QueryGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, a.ID, groups[0].ID)

	a.Description = "Science track"
	a.IsActive = false
	_, err = s.Groups.UpdateGroup(ctx, a)
	require.NoError(t, err)
	got, err := s.Groups.GetGroupByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Science track", got.Description)
	assert.False(t, got.IsActive)

	require.NoError(t, s.Groups.DeleteGroup(ctx, b.ID))
	_, err = s.Groups.GetGroupByID(ctx, b.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(s.Groups.DeleteGroup(ctx, b.ID)))

	phy := testutil.CreateSubject(t, s.Subjects, "Physique", "PHY")
	testutil.CreateSubject(t, s.Subjects, "Anglais", "ANG")
	_, err = s.Subjects.CreateSubject(ctx, subject.Subject{Name: "Physics", Code: "PHY", Color: subject.DefaultColor})
	assert.Equal(t, subject.ErrCodeExists, err)

	subjects, err := s.Subjects.QuerySubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Anglais", subjects[0].Name)

	got2, err := s.Subjects.GetSubjectByCode(ctx, "PHY")
	require.NoError(t, err)
	assert.Equal(t, phy.ID, got2.ID)
	_, err = s.Subjects.GetSubjectByID(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
}

func testMaterials(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	grp := testutil.CreateGroup(t, s.Groups, "6e A")
	other := testutil.CreateGroup(t, s.Groups, "6e B")
	sub := testutil.CreateSubject(t, s.Subjects, "Histoire", "HIS")
	now := core.Now()

	create := func(title, groupID string, createdAt time.Time) material.Material {
		m, err := s.Materials.CreateMaterial(ctx, material.Material{
			Title:      title,
			FileName:   title + ".pdf",
			FileURL:    "/files/" + title + ".pdf",
			FileKey:    "materials/" + title,
			FileType:   "application/pdf",
			FileSize:   1024,
			GroupID:    groupID,
			SubjectID:  sub.ID,
			UploadedBy: "prof",
			IsVisible:  true,
			CreatedAt:  createdAt,
		})
		require.NoError(t, err)
		return m
	}
	old := create("old", grp.ID, now)
	recent := create("recent", grp.ID, now.Add(time.Minute))
	create("elsewhere", other.ID, now)

	materials, err := s.Materials.QueryMaterials(ctx, &material.QueryFilter{GroupID: grp.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{recent.ID, old.ID}, ids(materials, func(m material.Material) string { return m.ID }))
	assert.Equal(t, "materials/old", materials[1].FileKey)

	all, err := s.Materials.QueryMaterials(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	old.IsVisible = false
	_, err = s.Materials.UpdateMaterial(ctx, old)
	require.NoError(t, err)
	got, err := s.Materials.GetMaterialByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVisible)

	require.NoError(t, s.Materials.DeleteMaterial(ctx, old.ID))
	assert.True(t, core.IsNotFound(s.Materials.DeleteMaterial(ctx, old.ID)))
}

func testGrades(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	now := core.Now()

	create := func(studentID string, value float64, gradedAt time.Time) grade.Grade {
		g, err := s.Grades.CreateGrade(ctx, grade.Grade{
			StudentID:  studentID,
			SubjectID:  "sub",
			GroupID:    "grp",
			GradeValue: value,
			MaxValue:   grade.DefaultMaxValue,
			GradeType:  grade.TypeExam,
			Title:      "Exam",
			GradedBy:   "prof",
			GradedAt:   gradedAt,
			CreatedAt:  now,
		})
		require.NoError(t, err)
		return g
	}
	first := create("stu1", 12.5, now)
	second := create("stu1", 15.25, now.Add(time.Hour))
	create("stu2", 9, now)

	grades, err := s.Grades.QueryGrades(ctx, &grade.QueryFilter{StudentID: "stu1"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(grades, func(g grade.Grade) string { return g.ID }))
	assert.Equal(t, 15.25, grades[0].GradeValue)

	first.GradeValue = 18
	_, err = s.Grades.UpdateGrade(ctx, first)
	require.NoError(t, err)
	got, err := s.Grades.GetGradeByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 18.0, got.GradeValue)

	require.NoError(t, s.Grades.DeleteGrade(ctx, first.ID))
	_, err = s.Grades.GetGradeByID(ctx, first.ID)
	assert.True(t, core.IsNotFound(err))
}

func testSchedules(t *testing.T, s *storage.Store) {
	ctx := context.Background()

	create := func(groupID, professorID string, day int, start, end string) schedule.Schedule {
		sch, err := s.Schedules.CreateSchedule(ctx, schedule.Schedule{
			GroupID:     groupID,
			SubjectID:   "sub",
			ProfessorID: professorID,
			DayOfWeek:   day,
			StartTime:   start,
			EndTime:     end,
			IsActive:    true,
			CreatedAt:   core.Now(),
		})
		require.NoError(t, err)
		return sch
	}
	tue := create("g1", "p1", 2, "08:00", "10:00")
	monLate := create("g1", "p2", 1, "14:00", "16:00")
	monEarly := create("g1", "p1", 1, "08:00", "09:00")
	other := create("g2", "p1", 3, "10:00", "11:00")

	byGroup, err := s.Schedules.QuerySchedules(ctx, &schedule.QueryFilter{GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{monEarly.ID, monLate.ID, tue.ID},
		ids(byGroup, func(s schedule.Schedule) string { return s.ID }),
	)

	byProf, err := s.Schedules.QuerySchedules(ctx, &schedule.QueryFilter{ProfessorID: "p1"})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{monEarly.ID, tue.ID, other.ID},
		ids(byProf, func(s schedule.Schedule) string { return s.ID }),
	)

	tue.Room = "B12"
	_, err = s.Schedules.UpdateSchedule(ctx, tue)
	require.NoError(t, err)
	got, err := s.Schedules.GetScheduleByID(ctx, tue.ID)
	require.NoError(t, err)
	assert.Equal(t, "B12", got.Room)

	require.NoError(t, s.Schedules.DeleteSchedule(ctx, tue.ID))
	assert.True(t, core.IsNotFound(s.Schedules.DeleteSchedule(ctx, tue.ID)))
}

func testActivities(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	now := core.Now()

	create := func(userID, action, entityType, entityID string, at time.Time) activity.Log {
		log, err := s.Activities.CreateLog(ctx, activity.Log{
			UserID:     userID,
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Details:    activity.Details{"name": "6e A"},
			CreatedAt:  at,
		})
		require.NoError(t, err)
		return log
	}
	first := create("u1", activity.ActionCreateGroup, activity.EntityGroup, "g1", now)
	second := create("u1", activity.ActionLogin, activity.EntityUser, "", now.Add(time.Second))
	third := create("u2", activity.ActionUpdateGroup, activity.EntityGroup, "g1", now.Add(2*time.Second))

	all, err := s.Activities.QueryLogs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all, func(l activity.Log) string { return l.ID }))
	assert.Equal(t, "6e A", all[0].Details["name"])

	byUser, err := s.Activities.QueryLogs(ctx, &activity.QueryFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byEntity, err := s.Activities.QueryLogs(ctx, &activity.QueryFilter{EntityType: activity.EntityGroup, EntityID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID}, ids(byEntity, func(l activity.Log) string { return l.ID }))
}

func testNotifications(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	now := core.Now()

	create := func(userID, title string, at time.Time) notification.Notification {
		n, err := s.Notifications.CreateNotification(ctx, notification.Notification{
			UserID:    userID,
			Title:     title,
			Message:   "body",
			Type:      notification.TypeInfo,
			CreatedAt: at,
		})
		require.NoError(t, err)
		return n
	}
	older := create("u1", "older", now)
	newer := create("u1", "newer", now.Add(time.Second))
	create("u2", "other", now)

	notifs, err := s.Notifications.QueryUserNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{newer.ID, older.ID},
		ids(notifs, func(n notification.Notification) string { return n.ID }),
	)

	read, err := s.Notifications.MarkNotificationRead(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	got, err := s.Notifications.GetNotificationByID(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	_, err = s.Notifications.MarkNotificationRead(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
}

func testMessages(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	repo := s.Messages
	now := core.Now()

	msg, err := repo.CreateMessage(ctx, message.Message{
		GroupID: "g1", AuthorID: "u1", Title: "Welcome", Content: "Hello", CreatedAt: now,
	})
	require.NoError(t, err)
	newer, err := repo.CreateMessage(ctx, message.Message{
		GroupID: "g1", AuthorID: "u1", Title: "Exam", Content: "Friday", IsImportant: true, CreatedAt: now.Add(time.Second),
	})
	require.NoError(t, err)

	msgs, err := repo.QueryGroupMessages(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, msg.ID}, ids(msgs, func(m message.Message) string { return m.ID }))

	c1, err := repo.CreateComment(ctx, message.Comment{MessageID: msg.ID, AuthorID: "u2", Content: "first", CreatedAt: now})
	require.NoError(t, err)
	c2, err := repo.CreateComment(ctx, message.Comment{MessageID: msg.ID, AuthorID: "u3", Content: "second", CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)
	comments, err := repo.QueryComments(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c2.ID}, ids(comments, func(c message.Comment) string { return c.ID }))

	require.NoError(t, repo.CreateLike(ctx, message.Like{MessageID: msg.ID, UserID: "u2", CreatedAt: now}))
	require.NoError(t, repo.CreateLike(ctx, message.Like{MessageID: msg.ID, UserID: "u3", CreatedAt: now}))
	assert.Equal(t, message.ErrAlreadyLiked, repo.CreateLike(ctx, message.Like{MessageID: msg.ID, UserID: "u2", CreatedAt: now}))
	n, err := repo.CountLikes(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.DeleteLike(ctx, msg.ID, "u3"))
	assert.True(t, core.IsNotFound(repo.DeleteLike(ctx, msg.ID, "u3")))

	require.NoError(t, repo.DeleteMessage(ctx, msg.ID))
	_, err = repo.GetMessageByID(ctx, msg.ID)
	assert.True(t, core.IsNotFound(err))
	comments, err = repo.QueryComments(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	n, err = repo.CountLikes(ctx, msg.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testTransactions(t *testing.T, s *storage.Store) {
	ctx := context.Background()

	grp := testutil.CreateGroup(t, s.Groups, "unused")
	var created string
	err := s.Tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := s.Groups.DeleteGroup(ctx, grp.ID, exec); err != nil {
			return err
		}
		log, err := s.Activities.CreateLog(ctx, activity.Log{
			UserID:     "u1",
			Action:     activity.ActionDeleteGroup,
			EntityType: activity.EntityGroup,
			EntityID:   grp.ID,
			Details:    activity.Details{},
			CreatedAt:  core.Now(),
		}, exec)
		created = log.ID
		return err
	})
	require.NoError(t, err)

	logs, err := s.Activities.QueryLogs(ctx, &activity.QueryFilter{EntityType: activity.EntityGroup})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, created, logs[0].ID)
	groups, err := s.Groups.QueryGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
