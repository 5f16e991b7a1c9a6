package inmemdb

import (
	"context"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/subject"
)

type groupRepository struct {
	db *table[group.Group]
}

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db.groups}
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group, _ ...core.DBExecutor) (group.Group, error) {
	grp.ID = newID()
	repo.db.insert(grp.ID, grp, nil)
	return grp, nil
}

func (repo *groupRepository) QueryGroups(_ context.Context, _ ...core.DBExecutor) ([]group.Group, error) {
	groups := repo.db.filter(nil)
	sortRows(groups, func(a, b group.Group) int { return cmpStrings(a.Name, b.Name) }, func(g group.Group) string { return g.ID })
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id string, _ ...core.DBExecutor) (group.Group, error) {
	if grp, ok := repo.db.get(id); ok {
		return grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(_ context.Context, grp group.Group, _ ...core.DBExecutor) (group.Group, error) {
	if found, _ := repo.db.replace(grp.ID, grp, nil); !found {
		return group.Group{}, group.ErrNotFound
	}
	return grp, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.db.remove(id) {
		return group.ErrNotFound
	}
	return nil
}

type subjectRepository struct {
	db *table[subject.Subject]
}

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db.subjects}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, sub subject.Subject, _ ...core.DBExecutor) (subject.Subject, error) {
	sub.ID = newID()
	if !repo.db.insert(sub.ID, sub, func(s subject.Subject) bool { return s.Code == sub.Code }) {
		return subject.Subject{}, subject.ErrCodeExists
	}
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, _ ...core.DBExecutor) ([]subject.Subject, error) {
	subjects := repo.db.filter(nil)
	sortRows(subjects, func(a, b subject.Subject) int { return cmpStrings(a.Name, b.Name) }, func(s subject.Subject) string { return s.ID })
	return subjects, nil
}

func (repo *subjectRepository) GetSubjectByID(_ context.Context, id string, _ ...core.DBExecutor) (subject.Subject, error) {
	if sub, ok := repo.db.get(id); ok {
		return sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) GetSubjectByCode(_ context.Context, code string, _ ...core.DBExecutor) (subject.Subject, error) {
	subjects := repo.db.filter(func(s subject.Subject) bool { return s.Code == code })
	if len(subjects) == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return subjects[0], nil
}
