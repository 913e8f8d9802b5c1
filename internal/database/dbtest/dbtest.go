// Package dbtest opens throwaway stores for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated in-memory SQLite store closed with the test.
// A single connection keeps the in-memory database alive between queries.
func NewSQLite(t testing.TB) database.DB {
	t.Helper()

	x, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	x.SetMaxOpenConns(1)
	x.SetMaxIdleConns(1)
	x.SetConnMaxLifetime(0)

	db := database.Wrap(x, database.DialectSQLite)
	require.NoError(t, database.Migrate(context.Background(), db))

	t.Cleanup(func() { _ = db.Close() })
	return db
}
