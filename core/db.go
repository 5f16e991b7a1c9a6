package core

import (
	"context"
	"database/sql"
	"strings"
)

type (
	// DBExecutor is the part of a database transaction the relational repositories run statements on.
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// Transactor runs fn as one unit of work.
	// The executor handed to fn must be passed down to every repository call made inside fn.
	// It is nil for stores without transactions.
	Transactor interface {
		WithTx(ctx context.Context, fn func(exec DBExecutor) error) error
	}
)

// DBOrdering sorts a listing on one of its JSON field names, e.g. "lastName".
type DBOrdering struct {
	Field     string
	Ascending bool
}

// ParseOrdering reads a comma-separated field list such as "role,-createdAt".
// A leading "-" sorts the field in descending order.
func ParseOrdering(param string) []DBOrdering {
	var ordering []DBOrdering
	for _, field := range strings.Split(param, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if field = strings.TrimSpace(strings.TrimPrefix(field, "-")); field == "" {
			continue
		}
		ordering = append(ordering, DBOrdering{Field: field, Ascending: !descending})
	}
	return ordering
}

// OrderBy renders ordering as an ORDER BY list. columns maps the orderable fields to their column;
// other fields are ignored, and fallback is used when none is left. Ties are broken on id.
func OrderBy(ordering []DBOrdering, columns map[string]string, fallback string) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		if ord.Ascending {
			terms = append(terms, col+" ASC")
		} else {
			terms = append(terms, col+" DESC")
		}
	}
	if len(terms) == 0 {
		terms = append(terms, fallback)
	}
	return strings.Join(append(terms, "id ASC"), ", ")
}
