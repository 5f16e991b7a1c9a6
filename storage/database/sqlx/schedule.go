package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
)

const scheduleColumns = `id, group_id, subject_id, professor_id, day_of_week, start_time, end_time, room, notes,
	is_active, created_at`

type scheduleRow struct {
	ID          string      `db:"id"`
	GroupID     string      `db:"group_id"`
	SubjectID   string      `db:"subject_id"`
	ProfessorID string      `db:"professor_id"`
	DayOfWeek   int         `db:"day_of_week"`
	StartTime   string      `db:"start_time"`
	EndTime     string      `db:"end_time"`
	Room        null.String `db:"room"`
	Notes       null.String `db:"notes"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
}

func newScheduleRow(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:          s.ID,
		GroupID:     s.GroupID,
		SubjectID:   s.SubjectID,
		ProfessorID: s.ProfessorID,
		DayOfWeek:   s.DayOfWeek,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Room:        nullString(s.Room),
		Notes:       nullString(s.Notes),
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}

func (r scheduleRow) toSchedule() schedule.Schedule {
	return schedule.Schedule{
		ID:          r.ID,
		GroupID:     r.GroupID,
		SubjectID:   r.SubjectID,
		ProfessorID: r.ProfessorID,
		DayOfWeek:   r.DayOfWeek,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Room:        r.Room.String,
		Notes:       r.Notes.String,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	s.ID = newID()
	q := `INSERT INTO schedules (` + scheduleColumns + `) VALUES (:id, :group_id, :subject_id, :professor_id,
		:day_of_week, :start_time, :end_time, :room, :notes, :is_active, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newScheduleRow(s)); err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (repo *scheduleRepository) QuerySchedules(
	ctx context.Context,
	filter *schedule.QueryFilter,
	exec ...core.DBExecutor,
) ([]schedule.Schedule, error) {
	var where conditions
	switch {
	case filter.IsEmpty():
	case filter.GroupID != "":
		where.add("group_id = $%[1]d", filter.GroupID)
	default:
		where.add("professor_id = $%[1]d", filter.ProfessorID)
	}

	var rows []scheduleRow
	q := `SELECT ` + scheduleColumns + ` FROM schedules` + where.String() + ` ORDER BY day_of_week, start_time, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting schedules")
	}
	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, r.toSchedule())
	}
	return schedules, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string, exec ...core.DBExecutor) (schedule.Schedule, error) {
	var r scheduleRow
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound)
	}
	return r.toSchedule(), nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	q := `UPDATE schedules SET group_id = :group_id, subject_id = :subject_id, professor_id = :professor_id,
		day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, room = :room, notes = :notes,
		is_active = :is_active
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newScheduleRow(s))
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "updating schedule")
	}
	if err = checkAffected(res, schedule.ErrNotFound); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedule(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := executor(repo.db, exec).ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return checkAffected(res, schedule.ErrNotFound)
}
