// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/storage"
)

const uniqueViolation = pq.ErrorCode("23505")

// NewStore returns a Store backed by db. Closing the Store closes db.
func NewStore(db *sqlx.DB) *storage.Store {
	return &storage.Store{
		Tx:            NewTransactor(db),
		Users:         NewUserRepository(db),
		Groups:        NewGroupRepository(db),
		Subjects:      NewSubjectRepository(db),
		Materials:     NewMaterialRepository(db),
		Grades:        NewGradeRepository(db),
		Schedules:     NewScheduleRepository(db),
		Activities:    NewActivityRepository(db),
		Notifications: NewNotificationRepository(db),
		Messages:      NewMessageRepository(db),
		Closer:        db.Close,
	}
}

type transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) core.Transactor {
	return &transactor{db: db}
}

// WithTx runs fn in a database transaction, committed when fn succeeds and rolled back otherwise.
func (t *transactor) WithTx(ctx context.Context, fn func(exec core.DBExecutor) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// executor returns the transaction passed down by a Transactor, or db.
func executor(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 && exec[0] != nil {
		if ext, ok := exec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

func trapNoRowsErr(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkAffected returns notFound when res reports no affected row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

// conditions accumulates the AND-ed terms of a WHERE clause and their positional arguments.
type conditions struct {
	terms []string
	args  []interface{}
}

// add appends term, in which %[1]d stands for the placeholder index of arg.
func (c *conditions) add(term string, arg interface{}) {
	c.args = append(c.args, arg)
	c.terms = append(c.terms, fmt.Sprintf(term, len(c.args)))
}

func (c *conditions) String() string {
	if len(c.terms) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.terms, " AND ")
}
