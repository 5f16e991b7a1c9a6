package group

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
)

var ErrNotFound = core.NewNotFoundError("group")

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		// QueryGroups returns all groups ordered by name.
		QueryGroups(ctx context.Context, exec ...core.DBExecutor) ([]Group, error)
		GetGroupByID(ctx context.Context, id string, exec ...core.DBExecutor) (Group, error)
		UpdateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		DeleteGroup(ctx context.Context, id string, exec ...core.DBExecutor) error
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

func (svc *Service) Create(ctx context.Context, actorID string, ng NewGroup) (Group, error) {
	grp := Group{
		Name:         ng.Name,
		Description:  ng.Description,
		AcademicYear: ng.AcademicYear,
		IsActive:     core.BoolValue(ng.IsActive, true),
		CreatedBy:    actorID,
		CreatedAt:    core.Now(),
	}

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if grp, err = svc.repo.CreateGroup(ctx, grp, exec); err != nil {
			return errors.Wrap(err, "creating group")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateGroup, activity.EntityGroup, grp.ID,
			activity.Details{"name": grp.Name, "academicYear": grp.AcademicYear},
		)
	})
	if err != nil {
		return Group{}, err
	}
	return grp, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryGroups(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actorID, id string, ug UpdateGroup) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	grp = ug.Merge(grp)

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if grp, err = svc.repo.UpdateGroup(ctx, grp, exec); err != nil {
			return errors.Wrap(err, "updating group")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUpdateGroup, activity.EntityGroup, grp.ID,
			activity.Details{"updates": ug},
		)
	})
	if err != nil {
		return Group{}, err
	}
	return grp, nil
}

func (svc *Service) Delete(ctx context.Context, actorID, id string) error {
	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteGroup(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting group")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionDeleteGroup, activity.EntityGroup, id,
			activity.Details{"deletedAt": core.Now()},
		)
	})
}
