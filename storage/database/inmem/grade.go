package inmemdb

import (
	"context"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grade"
)

type gradeRepository struct {
	db *table[grade.Grade]
}

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grades}
}

func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade, _ ...core.DBExecutor) (grade.Grade, error) {
	g.ID = newID()
	repo.db.insert(g.ID, g, nil)
	return g, nil
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter *grade.QueryFilter, _ ...core.DBExecutor) ([]grade.Grade, error) {
	grades := repo.db.filter(func(g grade.Grade) bool {
		if filter.IsEmpty() {
			return true
		}
		return (filter.StudentID == "" || g.StudentID == filter.StudentID) &&
			(filter.SubjectID == "" || g.SubjectID == filter.SubjectID) &&
			(filter.GroupID == "" || g.GroupID == filter.GroupID)
	})
	sortRows(grades, func(a, b grade.Grade) int {
		return cmpTimes(b.GradedAt, a.GradedAt)
	}, func(g grade.Grade) string { return g.ID })
	return grades, nil
}

func (repo *gradeRepository) GetGradeByID(_ context.Context, id string, _ ...core.DBExecutor) (grade.Grade, error) {
	if g, ok := repo.db.get(id); ok {
		return g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, g grade.Grade, _ ...core.DBExecutor) (grade.Grade, error) {
	if found, _ := repo.db.replace(g.ID, g, nil); !found {
		return grade.Grade{}, grade.ErrNotFound
	}
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.db.remove(id) {
		return grade.ErrNotFound
	}
	return nil
}
