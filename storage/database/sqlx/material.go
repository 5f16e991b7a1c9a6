package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/material"
)

const materialColumns = `id, title, description, file_name, file_url, file_key, file_type, file_size,
	group_id, subject_id, uploaded_by, is_visible, created_at`

type materialRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	FileName    string      `db:"file_name"`
	FileURL     string      `db:"file_url"`
	FileKey     null.String `db:"file_key"`
	FileType    string      `db:"file_type"`
	FileSize    int64       `db:"file_size"`
	GroupID     string      `db:"group_id"`
	SubjectID   string      `db:"subject_id"`
	UploadedBy  string      `db:"uploaded_by"`
	IsVisible   bool        `db:"is_visible"`
	CreatedAt   time.Time   `db:"created_at"`
}

func newMaterialRow(m material.Material) materialRow {
	return materialRow{
		ID:          m.ID,
		Title:       m.Title,
		Description: nullString(m.Description),
		FileName:    m.FileName,
		FileURL:     m.FileURL,
		FileKey:     nullString(m.FileKey),
		FileType:    m.FileType,
		FileSize:    m.FileSize,
		GroupID:     m.GroupID,
		SubjectID:   m.SubjectID,
		UploadedBy:  m.UploadedBy,
		IsVisible:   m.IsVisible,
		CreatedAt:   m.CreatedAt,
	}
}

func (r materialRow) toMaterial() material.Material {
	return material.Material{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		FileName:    r.FileName,
		FileURL:     r.FileURL,
		FileKey:     r.FileKey.String,
		FileType:    r.FileType,
		FileSize:    r.FileSize,
		GroupID:     r.GroupID,
		SubjectID:   r.SubjectID,
		UploadedBy:  r.UploadedBy,
		IsVisible:   r.IsVisible,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type materialRepository struct {
	db *sqlx.DB
}

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material, exec ...core.DBExecutor) (material.Material, error) {
	m.ID = newID()
	q := `INSERT INTO materials (` + materialColumns + `) VALUES (:id, :title, :description, :file_name, :file_url,
		:file_key, :file_type, :file_size, :group_id, :subject_id, :uploaded_by, :is_visible, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newMaterialRow(m)); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo *materialRepository) QueryMaterials(
	ctx context.Context,
	filter *material.QueryFilter,
	exec ...core.DBExecutor,
) ([]material.Material, error) {
	var where conditions
	if !filter.IsEmpty() {
		if filter.GroupID != "" {
			where.add("group_id = $%[1]d", filter.GroupID)
		}
		if filter.SubjectID != "" {
			where.add("subject_id = $%[1]d", filter.SubjectID)
		}
	}

	var rows []materialRow
	q := `SELECT ` + materialColumns + ` FROM materials` + where.String() + ` ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	materials := make([]material.Material, 0, len(rows))
	for _, r := range rows {
		materials = append(materials, r.toMaterial())
	}
	return materials, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string, exec ...core.DBExecutor) (material.Material, error) {
	var r materialRow
	q := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return material.Material{}, trapNoRowsErr(err, material.ErrNotFound)
	}
	return r.toMaterial(), nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material, exec ...core.DBExecutor) (material.Material, error) {
	q := `UPDATE materials SET title = :title, description = :description, is_visible = :is_visible WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, newMaterialRow(m))
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if err = checkAffected(res, material.ErrNotFound); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

func (repo *materialRepository) DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := executor(repo.db, exec).ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return checkAffected(res, material.ErrNotFound)
}
