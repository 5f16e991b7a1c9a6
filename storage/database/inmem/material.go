package inmemdb

import (
	"context"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/material"
)

type materialRepository struct {
	db *table[material.Material]
}

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.materials}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material, _ ...core.DBExecutor) (material.Material, error) {
	m.ID = newID()
	repo.db.insert(m.ID, m, nil)
	return m, nil
}

func (repo *materialRepository) QueryMaterials(
	_ context.Context,
	filter *material.QueryFilter,
	_ ...core.DBExecutor,
) ([]material.Material, error) {
	materials := repo.db.filter(func(m material.Material) bool {
		if filter.IsEmpty() {
			return true
		}
		return (filter.GroupID == "" || m.GroupID == filter.GroupID) &&
			(filter.SubjectID == "" || m.SubjectID == filter.SubjectID)
	})
	sortRows(materials, func(a, b material.Material) int {
		return cmpTimes(b.CreatedAt, a.CreatedAt)
	}, func(m material.Material) string { return m.ID })
	return materials, nil
}

func (repo *materialRepository) GetMaterialByID(_ context.Context, id string, _ ...core.DBExecutor) (material.Material, error) {
	if m, ok := repo.db.get(id); ok {
		return m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, m material.Material, _ ...core.DBExecutor) (material.Material, error) {
	if found, _ := repo.db.replace(m.ID, m, nil); !found {
		return material.Material{}, material.ErrNotFound
	}
	return m, nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.db.remove(id) {
		return material.ErrNotFound
	}
	return nil
}
