// Package storage groups the repositories of one storage backend.
package storage

import (
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
)

// Store is the explicit handle on a storage backend; it is passed to whoever needs persistence.
type Store struct {
	Tx            core.Transactor
	Users         user.Repository
	Groups        group.Repository
	Subjects      subject.Repository
	Materials     material.Repository
	Grades        grade.Repository
	Schedules     schedule.Repository
	Activities    activity.Repository
	Notifications notification.Repository
	Messages      message.Repository

	// Closer releases the backend resources, if any.
	Closer func() error
}

func (s *Store) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer()
}
