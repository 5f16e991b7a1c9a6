// Package inmemdb is a storage backend keeping every record in process memory.
// Nothing survives a restart; it is meant for development and tests.
package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/storage"
)

type table[T any] struct {
	mutex sync.RWMutex
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// insert stores row under id unless conflicts reports a clash with an existing row.
func (t *table[T]) insert(id string, row T, conflicts func(T) bool) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if conflicts != nil {
		for _, r := range t.rows {
			if conflicts(r) {
				return false
			}
		}
	}
	t.rows[id] = row
	return true
}

// replace overwrites an existing row. It reports false when id is unknown or conflicts matches another row.
func (t *table[T]) replace(id string, row T, conflicts func(id string, r T) bool) (found, ok bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, exists := t.rows[id]; !exists {
		return false, false
	}
	if conflicts != nil {
		for rid, r := range t.rows {
			if rid != id && conflicts(rid, r) {
				return true, false
			}
		}
	}
	t.rows[id] = row
	return true, true
}

func (t *table[T]) remove(id string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *table[T]) removeWhere(match func(T) bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for id, r := range t.rows {
		if match(r) {
			delete(t.rows, id)
		}
	}
}

func (t *table[T]) filter(keep func(T) bool) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	rows := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if keep == nil || keep(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

// DB holds the tables. Units of work are serialised by txMutex.
type DB struct {
	txMutex sync.Mutex

	users         *table[user.User]
	groups        *table[group.Group]
	subjects      *table[subject.Subject]
	materials     *table[material.Material]
	grades        *table[grade.Grade]
	schedules     *table[schedule.Schedule]
	logs          *table[activity.Log]
	notifications *table[notification.Notification]
	messages      *table[message.Message]
	comments      *table[message.Comment]
	likes         *table[message.Like]
}

var _ core.Transactor = (*DB)(nil)

func NewDB() *DB {
	return &DB{
		users:         newTable[user.User](),
		groups:        newTable[group.Group](),
		subjects:      newTable[subject.Subject](),
		materials:     newTable[material.Material](),
		grades:        newTable[grade.Grade](),
		schedules:     newTable[schedule.Schedule](),
		logs:          newTable[activity.Log](),
		notifications: newTable[notification.Notification](),
		messages:      newTable[message.Message](),
		comments:      newTable[message.Comment](),
		likes:         newTable[message.Like](),
	}
}

// WithTx runs fn while holding the store-wide write lock.
// There is no rollback: writes made by fn before it fails stay applied.
func (db *DB) WithTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMutex.Lock()
	defer db.txMutex.Unlock()
	return fn(nil)
}

// NewStore returns a Store backed by a fresh in-memory DB.
func NewStore() *storage.Store {
	db := NewDB()
	return &storage.Store{
		Tx:            db,
		Users:         NewUserRepository(db),
		Groups:        NewGroupRepository(db),
		Subjects:      NewSubjectRepository(db),
		Materials:     NewMaterialRepository(db),
		Grades:        NewGradeRepository(db),
		Schedules:     NewScheduleRepository(db),
		Activities:    NewActivityRepository(db),
		Notifications: NewNotificationRepository(db),
		Messages:      NewMessageRepository(db),
	}
}

func newID() string {
	return uuid.NewString()
}

// cmpStrings compares case-insensitively.
func cmpStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// sortRows sorts rows with cmp, breaking ties by id.
func sortRows[T any](rows []T, cmp func(a, b T) int, id func(T) string) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := cmp(rows[i], rows[j]); c != 0 {
			return c < 0
		}
		return id(rows[i]) < id(rows[j])
	})
}
