package subject

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
)

var (
	ErrNotFound   = core.NewNotFoundError("subject")
	ErrCodeExists = errors.New("a subject with this code already exists")
)

type (
	Repository interface {
		// CreateSubject returns ErrCodeExists when the code is taken.
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		// QuerySubjects returns all subjects ordered by name.
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		GetSubjectByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Subject, error)
	}

	Service struct {
		repo       Repository
		tx         core.Transactor
		activities activity.Repository
	}
)

func NewService(repo Repository, tx core.Transactor, activities activity.Repository) *Service {
	return &Service{repo: repo, tx: tx, activities: activities}
}

func codeConflict(err error) error {
	if errors.Cause(err) == ErrCodeExists {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return err
}

func newSubject(ns NewSubject) Subject {
	color := ns.Color
	if color == "" {
		color = DefaultColor
	}
	return Subject{
		Name:        ns.Name,
		Code:        ns.Code,
		Description: ns.Description,
		Color:       color,
		IsActive:    core.BoolValue(ns.IsActive, true),
		CreatedAt:   core.Now(),
	}
}

func (svc *Service) Create(ctx context.Context, actorID string, ns NewSubject) (Subject, error) {
	if _, err := svc.repo.GetSubjectByCode(ctx, ns.Code); err == nil {
		return Subject{}, codeConflict(ErrCodeExists)
	} else if !core.IsNotFound(err) {
		return Subject{}, errors.Wrap(err, "checking code")
	}

	sub := newSubject(ns)
	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if sub, err = svc.repo.CreateSubject(ctx, sub, exec); err != nil {
			return codeConflict(errors.Wrap(err, "creating subject"))
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateSubject, activity.EntitySubject, sub.ID,
			activity.Details{"name": sub.Name, "code": sub.Code},
		)
	})
	if err != nil {
		return Subject{}, err
	}
	return sub, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

// EnsureDefaults creates the missing default subjects and returns how many were created.
func (svc *Service) EnsureDefaults(ctx context.Context) (int, error) {
	var created int
	for _, ns := range Defaults {
		_, err := svc.repo.GetSubjectByCode(ctx, ns.Code)
		if err == nil {
			continue
		}
		if !core.IsNotFound(err) {
			return created, errors.Wrap(err, "getting subject "+ns.Code)
		}
		if _, err = svc.repo.CreateSubject(ctx, newSubject(ns)); err != nil {
			return created, errors.Wrap(err, "creating subject "+ns.Code)
		}
		created++
	}
	return created, nil
}
