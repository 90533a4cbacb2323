// Package store is the state store: the sole owner of the per-project
// SQLite file backing markers, session state, the task graph, how-tos,
// questions, notes, and the audit log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// CloseDB runs PRAGMA optimize then closes the connection.
func CloseDB(db *sql.DB) error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA optimize")
	return db.Close()
}

var validCheckpointModes = map[string]bool{ //nolint:gochecknoglobals // static allowlist
	"PASSIVE": true, "FULL": true, "TRUNCATE": true, "RESTART": true,
}

// CheckpointWAL triggers a WAL checkpoint in one of the allowed modes.
func CheckpointWAL(ctx context.Context, db *sql.DB, mode string) error {
	if !validCheckpointModes[mode] {
		return fmt.Errorf("invalid WAL checkpoint mode %q", mode)
	}
	_, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint("+mode+")")
	return err
}

const defaultBusyTimeoutMS = 5000

// OpenDB opens a connection and configures SQLite pragmas but does not run
// migrations. There is no long-lived shared connection elsewhere in this
// process (Ownership) — every other component borrows a fresh *sql.DB per
// operation via Open/Init, executes, and closes.
func OpenDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", normalizeSQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single-writer CLI-scale pool: every hook invocation is a short-lived
	// process, so one connection is sufficient and avoids WAL writer
	// contention across goroutines within a process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busyTimeout := defaultBusyTimeoutMS
	if v := os.Getenv("RELIABILITY_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			busyTimeout = parsed
		}
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := RetryWithBackoff(context.Background(), func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return err
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	return db, nil
}

// InitDBWithPath opens a database and runs migrations. Used by the CLI
// entry points and by tests.
func InitDBWithPath(dbPath string) (*sql.DB, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	if err := MigrateDB(db, dbPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func normalizeSQLiteDSN(dbPath string) string {
	if dbPath == ":memory:" {
		return "file::memory:?cache=shared"
	}
	if strings.HasPrefix(dbPath, "file:") {
		if strings.Contains(dbPath, ":memory:") || strings.Contains(dbPath, "_txlock=") {
			return dbPath
		}
		sep := "?"
		if strings.Contains(dbPath, "?") {
			sep = "&"
		}
		return dbPath + sep + "_txlock=immediate"
	}
	return "file:" + dbPath + "?mode=rwc&_txlock=immediate"
}
