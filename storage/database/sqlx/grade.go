package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grade"
)

const gradeColumns = `id, student_id, subject_id, group_id, grade_value, max_value, grade_type, title, description,
	graded_by, graded_at, created_at`

type gradeRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	SubjectID   string      `db:"subject_id"`
	GroupID     string      `db:"group_id"`
	GradeValue  float64     `db:"grade_value"`
	MaxValue    float64     `db:"max_value"`
	GradeType   string      `db:"grade_type"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	GradedBy    string      `db:"graded_by"`
	GradedAt    time.Time   `db:"graded_at"`
	CreatedAt   time.Time   `db:"created_at"`
}

func newGradeRow(g grade.Grade) gradeRow {
	return gradeRow{
		ID:          g.ID,
		StudentID:   g.StudentID,
		SubjectID:   g.SubjectID,
		GroupID:     g.GroupID,
		GradeValue:  g.GradeValue,
		MaxValue:    g.MaxValue,
		GradeType:   g.GradeType,
		Title:       g.Title,
		Description: nullString(g.Description),
		GradedBy:    g.GradedBy,
		GradedAt:    g.GradedAt,
		CreatedAt:   g.CreatedAt,
	}
}

func (r gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:          r.ID,
		StudentID:   r.StudentID,
		SubjectID:   r.SubjectID,
		GroupID:     r.GroupID,
		GradeValue:  r.GradeValue,
		MaxValue:    r.MaxValue,
		GradeType:   r.GradeType,
		Title:       r.Title,
		Description: r.Description.String,
		GradedBy:    r.GradedBy,
		GradedAt:    r.GradedAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type gradeRepository struct {
	db *sqlx.DB
}

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	g.ID = newID()
	q := `INSERT INTO grades (` + gradeColumns + `) VALUES (:id, :student_id, :subject_id, :group_id, :grade_value,
		:max_value, :grade_type, :title, :description, :graded_by, :graded_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newGradeRow(g)); err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter *grade.QueryFilter, exec ...core.DBExecutor) ([]grade.Grade, error) {
	var where conditions
	if !filter.IsEmpty() {
		if filter.StudentID != "" {
			where.add("student_id = $%[1]d", filter.StudentID)
		}
		if filter.SubjectID != "" {
			where.add("subject_id = $%[1]d", filter.SubjectID)
		}
		if filter.GroupID != "" {
			where.add("group_id = $%[1]d", filter.GroupID)
		}
	}

	var rows []gradeRow
	q := `SELECT ` + gradeColumns + ` FROM grades` + where.String() + ` ORDER BY graded_at DESC, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.toGrade())
	}
	return grades, nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id string, exec ...core.DBExecutor) (grade.Grade, error) {
	var r gradeRow
	q := `SELECT ` + gradeColumns + ` FROM grades WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return grade.Grade{}, trapNoRowsErr(err, grade.ErrNotFound)
	}
	return r.toGrade(), nil
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	q := `UPDATE grades SET grade_value = :grade_value, max_value = :max_value, grade_type = :grade_type,
		title = :title, description = :description
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newGradeRow(g))
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if err = checkAffected(res, grade.ErrNotFound); err != nil {
		return grade.Grade{}, err
	}
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := executor(repo.db, exec).ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return checkAffected(res, grade.ErrNotFound)
}
