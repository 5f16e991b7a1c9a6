package notification

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
)

var ErrNotFound = core.NewNotFoundError("notification")

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		// QueryUserNotifications returns the notifications of a user, newest first.
		QueryUserNotifications(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string, exec ...core.DBExecutor) (Notification, error)
		MarkNotificationRead(ctx context.Context, id string, exec ...core.DBExecutor) (Notification, error)
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

// Notify creates a notification for userID with the given executor.
func Notify(ctx context.Context, repo Repository, exec core.DBExecutor, userID, typ, title, message string) error {
	if !IsValidType(typ) {
		return errors.Errorf("invalid notification type %q", typ)
	}
	_, err := repo.CreateNotification(ctx, Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: core.Now(),
	}, exec)
	return errors.Wrap(err, "creating notification")
}

func (svc *Service) QueryForUser(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryUserNotifications(ctx, userID)
}

// MarkRead marks a notification of userID as read. Notifications of other users are reported as not found.
func (svc *Service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != userID {
		return Notification{}, ErrNotFound
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if n, err = svc.repo.MarkNotificationRead(ctx, id, exec); err != nil {
			return errors.Wrap(err, "marking notification read")
		}
		return activity.Record(ctx, svc.activities, exec, userID, activity.ActionReadNotification, activity.EntityNotification, id, nil)
	})
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}
