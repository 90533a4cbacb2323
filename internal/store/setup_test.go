package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.sqlite3")
	db, err := InitDBWithPath(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}
