package activity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

type (
	Repository interface {
		CreateLog(ctx context.Context, log Log, exec ...core.DBExecutor) (Log, error)
		// QueryLogs returns the logs matching filter, newest first.
		QueryLogs(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Log, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Log, error) {
	return svc.repo.QueryLogs(ctx, filter)
}

// Record appends a Log for a successful mutation.
// It must run with the same executor as the mutation so both are committed together.
func Record(
	ctx context.Context,
	repo Repository,
	exec core.DBExecutor,
	actorID, action, entityType, entityID string,
	details Details,
) error {
	if details == nil {
		details = Details{}
	}
	_, err := repo.CreateLog(ctx, Log{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  core.Now(),
	}, exec)
	return errors.Wrap(err, "recording activity")
}
