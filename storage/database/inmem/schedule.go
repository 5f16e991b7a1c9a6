package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
)

type scheduleRepository struct {
	db *table[schedule.Schedule]
}

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedules}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule, _ ...core.DBExecutor) (schedule.Schedule, error) {
	s.ID = newID()
	repo.db.insert(s.ID, s, nil)
	return s, nil
}

func (repo *scheduleRepository) QuerySchedules(
	_ context.Context,
	filter *schedule.QueryFilter,
	_ ...core.DBExecutor,
) ([]schedule.Schedule, error) {
	schedules := repo.db.filter(func(s schedule.Schedule) bool {
		switch {
		case filter.IsEmpty():
			return true
		case filter.GroupID != "":
			return s.GroupID == filter.GroupID
		default:
			return s.ProfessorID == filter.ProfessorID
		}
	})
	sortRows(schedules, func(a, b schedule.Schedule) int {
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek - b.DayOfWeek
		}
		return strings.Compare(a.StartTime, b.StartTime)
	}, func(s schedule.Schedule) string { return s.ID })
	return schedules, nil
}

func (repo *scheduleRepository) GetScheduleByID(_ context.Context, id string, _ ...core.DBExecutor) (schedule.Schedule, error) {
	if s, ok := repo.db.get(id); ok {
		return s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) UpdateSchedule(_ context.Context, s schedule.Schedule, _ ...core.DBExecutor) (schedule.Schedule, error) {
	if found, _ := repo.db.replace(s.ID, s, nil); !found {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedule(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.db.remove(id) {
		return schedule.ErrNotFound
	}
	return nil
}
