package sqlxrepos_test

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/storage"
	"github.com/trezcool/ecole/storage/database"
	sqlxrepos "github.com/trezcool/ecole/storage/database/sqlx"
	"github.com/trezcool/ecole/storage/database/storetest"
)

const truncateAll = `TRUNCATE users, groups, subjects, materials, grades, schedules, activity_logs, notifications,
	group_messages, message_comments, message_likes`

// TestStore runs against the PostgreSQL database named by TEST_DATABASE_URL.
func TestStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	storetest.Run(t, func(t *testing.T) *storage.Store {
		_, err := db.Exec(truncateAll)
		require.NoError(t, err)
		store := sqlxrepos.NewStore(db)
		store.Closer = nil
		return store
	})
}
