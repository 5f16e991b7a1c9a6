package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/subject"
)

const groupColumns = `id, name, description, academic_year, is_active, created_by, created_at`

type groupRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Description  null.String `db:"description"`
	AcademicYear string      `db:"academic_year"`
	IsActive     bool        `db:"is_active"`
	CreatedBy    null.String `db:"created_by"`
	CreatedAt    time.Time   `db:"created_at"`
}

func newGroupRow(grp group.Group) groupRow {
	return groupRow{
		ID:           grp.ID,
		Name:         grp.Name,
		Description:  nullString(grp.Description),
		AcademicYear: grp.AcademicYear,
		IsActive:     grp.IsActive,
		CreatedBy:    nullString(grp.CreatedBy),
		CreatedAt:    grp.CreatedAt,
	}
}

func (r groupRow) toGroup() group.Group {
	return group.Group{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description.String,
		AcademicYear: r.AcademicYear,
		IsActive:     r.IsActive,
		CreatedBy:    r.CreatedBy.String,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	grp.ID = newID()
	q := `INSERT INTO groups (` + groupColumns + `)
		VALUES (:id, :name, :description, :academic_year, :is_active, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newGroupRow(grp)); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo *groupRepository) QueryGroups(ctx context.Context, exec ...core.DBExecutor) ([]group.Group, error) {
	var rows []groupRow
	q := `SELECT ` + groupColumns + ` FROM groups ORDER BY LOWER(name), id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.toGroup())
	}
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	var r groupRow
	q := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound)
	}
	return r.toGroup(), nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	q := `UPDATE groups SET name = :name, description = :description, academic_year = :academic_year,
		is_active = :is_active
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newGroupRow(grp))
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if err = checkAffected(res, group.ErrNotFound); err != nil {
		return group.Group{}, err
	}
	return grp, nil
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := executor(repo.db, exec).ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return checkAffected(res, group.ErrNotFound)
}

const subjectColumns = `id, name, code, description, color, is_active, created_at`

type subjectRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Code        string      `db:"code"`
	Description null.String `db:"description"`
	Color       string      `db:"color"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r subjectRow) toSubject() subject.Subject {
	return subject.Subject{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description.String,
		Color:       r.Color,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type subjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	sub.ID = newID()
	row := subjectRow{
		ID:          sub.ID,
		Name:        sub.Name,
		Code:        sub.Code,
		Description: nullString(sub.Description),
		Color:       sub.Color,
		IsActive:    sub.IsActive,
		CreatedAt:   sub.CreatedAt,
	}
	q := `INSERT INTO subjects (` + subjectColumns + `)
		VALUES (:id, :name, :code, :description, :color, :is_active, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, row); err != nil {
		if isUniqueViolation(err) {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]subject.Subject, error) {
	var rows []subjectRow
	q := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY LOWER(name), id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.toSubject())
	}
	return subjects, nil
}

func (repo *subjectRepository) getSubject(ctx context.Context, col, val string, exec []core.DBExecutor) (subject.Subject, error) {
	var r subjectRow
	q := `SELECT ` + subjectColumns + ` FROM subjects WHERE ` + col + ` = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, val); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound)
	}
	return r.toSubject(), nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (subject.Subject, error) {
	return repo.getSubject(ctx, "id", id, exec)
}

func (repo *subjectRepository) GetSubjectByCode(ctx context.Context, code string, exec ...core.DBExecutor) (subject.Subject, error) {
	return repo.getSubject(ctx, "code", code, exec)
}
