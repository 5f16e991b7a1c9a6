package schedule

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
)

var (
	ErrNotFound     = core.NewNotFoundError("schedule")
	errNotProfessor = "user is not a professor"
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, s Schedule, exec ...core.DBExecutor) (Schedule, error)
		// QuerySchedules returns the schedules matching filter, ordered by day of week then start time.
		QuerySchedules(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Schedule, error)
		GetScheduleByID(ctx context.Context, id string, exec ...core.DBExecutor) (Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule, exec ...core.DBExecutor) (Schedule, error)
		DeleteSchedule(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo       Repository
		users      user.Repository
		groups     group.Repository
		subjects   subject.Repository
		tx         core.Transactor
		activities activity.Repository
	}
)

func NewService(
	repo Repository,
	users user.Repository,
	groups group.Repository,
	subjects subject.Repository,
	tx core.Transactor,
	activities activity.Repository,
) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		groups:     groups,
		subjects:   subjects,
		tx:         tx,
		activities: activities,
	}
}

func (svc *Service) checkReferences(ctx context.Context, s Schedule) error {
	if _, err := svc.groups.GetGroupByID(ctx, s.GroupID); err != nil {
		return errors.Wrap(core.NewReferenceError(err, "groupId"), "getting group")
	}
	if _, err := svc.subjects.GetSubjectByID(ctx, s.SubjectID); err != nil {
		return errors.Wrap(core.NewReferenceError(err, "subjectId"), "getting subject")
	}
	prof, err := svc.users.GetUserByID(ctx, s.ProfessorID)
	if err != nil {
		return errors.Wrap(core.NewReferenceError(err, "professorId"), "getting professor")
	}
	if !prof.IsProfessor() {
		return core.NewValidationError(nil, core.FieldError{Field: "professorId", Error: errNotProfessor})
	}
	return nil
}

// Create adds a schedule slot. Overlapping slots are accepted.
func (svc *Service) Create(ctx context.Context, actorID string, ns NewSchedule) (Schedule, error) {
	if ns.DayOfWeek == nil {
		return Schedule{}, core.NewValidationError(nil, core.FieldError{Field: "dayOfWeek", Error: "this field is required"})
	}
	s := Schedule{
		GroupID:     ns.GroupID,
		SubjectID:   ns.SubjectID,
		ProfessorID: ns.ProfessorID,
		DayOfWeek:   *ns.DayOfWeek,
		StartTime:   ns.StartTime,
		EndTime:     ns.EndTime,
		Room:        ns.Room,
		Notes:       ns.Notes,
		IsActive:    core.BoolValue(ns.IsActive, true),
		CreatedAt:   core.Now(),
	}
	if !validRange(s.StartTime, s.EndTime) {
		return Schedule{}, timeRangeError()
	}
	if err := svc.checkReferences(ctx, s); err != nil {
		return Schedule{}, err
	}

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if s, err = svc.repo.CreateSchedule(ctx, s, exec); err != nil {
			return errors.Wrap(err, "creating schedule")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateSchedule, activity.EntitySchedule, s.ID,
			activity.Details{
				"dayOfWeek": s.DayOfWeek,
				"startTime": s.StartTime,
				"endTime":   s.EndTime,
				"groupId":   s.GroupID,
				"subjectId": s.SubjectID,
			},
		)
	})
	if err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actorID, id string, us UpdateSchedule) (Schedule, error) {
	s, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	s = us.Merge(s)
	if !validRange(s.StartTime, s.EndTime) {
		return Schedule{}, timeRangeError()
	}
	if us.GroupID != nil || us.SubjectID != nil || us.ProfessorID != nil {
		if err = svc.checkReferences(ctx, s); err != nil {
			return Schedule{}, err
		}
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if s, err = svc.repo.UpdateSchedule(ctx, s, exec); err != nil {
			return errors.Wrap(err, "updating schedule")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUpdateSchedule, activity.EntitySchedule, s.ID,
			activity.Details{"updates": us},
		)
	})
	if err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, actorID, id string) error {
	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteSchedule(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting schedule")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionDeleteSchedule, activity.EntitySchedule, id,
			activity.Details{"deletedAt": core.Now()},
		)
	})
}
