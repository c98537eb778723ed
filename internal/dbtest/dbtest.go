// Package dbtest opens a migrated in-memory database for repository and service tests.
package dbtest

import (
	"testing"

	"stockledger/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns a fresh, migrated SQLite database private to t.
// The pool holds exactly one connection, so the in-memory database lives as long as the test
// and concurrent callers queue for it the way they would queue for a row lock.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
