package inmemdb

import (
	"context"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/notification"
)

type activityRepository struct {
	db *table[activity.Log]
}

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.logs}
}

func (repo *activityRepository) CreateLog(_ context.Context, log activity.Log, _ ...core.DBExecutor) (activity.Log, error) {
	log.ID = newID()
	repo.db.insert(log.ID, log, nil)
	return log, nil
}

func (repo *activityRepository) QueryLogs(_ context.Context, filter *activity.QueryFilter, _ ...core.DBExecutor) ([]activity.Log, error) {
	logs := repo.db.filter(func(l activity.Log) bool {
		if filter.IsEmpty() {
			return true
		}
		return (filter.UserID == "" || l.UserID == filter.UserID) &&
			(filter.EntityType == "" || l.EntityType == filter.EntityType) &&
			(filter.EntityID == "" || l.EntityID == filter.EntityID)
	})
	sortRows(logs, func(a, b activity.Log) int {
		return cmpTimes(b.CreatedAt, a.CreatedAt)
	}, func(l activity.Log) string { return l.ID })
	return logs, nil
}

type notificationRepository struct {
	db *table[notification.Notification]
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notifications}
}

func (repo *notificationRepository) CreateNotification(
	_ context.Context,
	n notification.Notification,
	_ ...core.DBExecutor,
) (notification.Notification, error) {
	n.ID = newID()
	repo.db.insert(n.ID, n, nil)
	return n, nil
}

func (repo *notificationRepository) QueryUserNotifications(
	_ context.Context,
	userID string,
	_ ...core.DBExecutor,
) ([]notification.Notification, error) {
	notifs := repo.db.filter(func(n notification.Notification) bool { return n.UserID == userID })
	sortRows(notifs, func(a, b notification.Notification) int {
		return cmpTimes(b.CreatedAt, a.CreatedAt)
	}, func(n notification.Notification) string { return n.ID })
	return notifs, nil
}

func (repo *notificationRepository) GetNotificationByID(
	_ context.Context,
	id string,
	_ ...core.DBExecutor,
) (notification.Notification, error) {
	if n, ok := repo.db.get(id); ok {
		return n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) MarkNotificationRead(
	_ context.Context,
	id string,
	_ ...core.DBExecutor,
) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, ok := repo.db.rows[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	n.IsRead = true
	repo.db.rows[id] = n
	return n, nil
}
