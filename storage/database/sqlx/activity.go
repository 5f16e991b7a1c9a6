package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/notification"
)

const activityColumns = `id, user_id, action, entity_type, entity_id, details, created_at`

type activityRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Action     string         `db:"action"`
	EntityType string         `db:"entity_type"`
	EntityID   null.String    `db:"entity_id"`
	Details    types.JSONText `db:"details"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r activityRow) toLog() (activity.Log, error) {
	details := make(activity.Details)
	if len(r.Details) > 0 {
		if err := r.Details.Unmarshal(&details); err != nil {
			return activity.Log{}, errors.Wrap(err, "decoding activity details")
		}
	}
	return activity.Log{
		ID:         r.ID,
		UserID:     r.UserID,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID.String,
		Details:    details,
		CreatedAt:  r.CreatedAt.UTC(),
	}, nil
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) CreateLog(ctx context.Context, log activity.Log, exec ...core.DBExecutor) (activity.Log, error) {
	log.ID = newID()
	details, err := json.Marshal(log.Details)
	if err != nil {
		return activity.Log{}, errors.Wrap(err, "encoding activity details")
	}
	row := activityRow{
		ID:         log.ID,
		UserID:     log.UserID,
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   nullString(log.EntityID),
		Details:    types.JSONText(details),
		CreatedAt:  log.CreatedAt,
	}
	q := `INSERT INTO activity_logs (` + activityColumns + `)
		VALUES (:id, :user_id, :action, :entity_type, :entity_id, :details, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, row); err != nil {
		return activity.Log{}, errors.Wrap(err, "inserting activity log")
	}
	return log, nil
}

func (repo *activityRepository) QueryLogs(ctx context.Context, filter *activity.QueryFilter, exec ...core.DBExecutor) ([]activity.Log, error) {
	var where conditions
	if !filter.IsEmpty() {
		if filter.UserID != "" {
			where.add("user_id = $%[1]d", filter.UserID)
		}
		if filter.EntityType != "" {
			where.add("entity_type = $%[1]d", filter.EntityType)
		}
		if filter.EntityID != "" {
			where.add("entity_id = $%[1]d", filter.EntityID)
		}
	}

	var rows []activityRow
	q := `SELECT ` + activityColumns + ` FROM activity_logs` + where.String() + ` ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting activity logs")
	}
	logs := make([]activity.Log, 0, len(rows))
	for _, r := range rows {
		log, err := r.toLog()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

const notificationColumns = `id, user_id, title, message, type, is_read, created_at`

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(
	ctx context.Context,
	n notification.Notification,
	exec ...core.DBExecutor,
) (notification.Notification, error) {
	n.ID = newID()
	row := notificationRow{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	q := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :title, :message, :type, :is_read, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, row); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryUserNotifications(
	ctx context.Context,
	userID string,
	exec ...core.DBExecutor,
) ([]notification.Notification, error) {
	var rows []notificationRow
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) GetNotificationByID(
	ctx context.Context,
	id string,
	exec ...core.DBExecutor,
) (notification.Notification, error) {
	var r notificationRow
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound)
	}
	return r.toNotification(), nil
}

func (repo *notificationRepository) MarkNotificationRead(
	ctx context.Context,
	id string,
	exec ...core.DBExecutor,
) (notification.Notification, error) {
	var r notificationRow
	q := `UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING ` + notificationColumns
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound)
	}
	return r.toNotification(), nil
}
