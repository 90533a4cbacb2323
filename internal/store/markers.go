package store

import (
	"context"
	"database/sql"
	"fmt"
)

// HasMarker reports whether the named marker is set.
func HasMarker(db *sql.DB, name string) (bool, error) {
	var count int
	err := RetryWithBackoff(context.Background(), func() error {
		return db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM markers WHERE name = ?`, name).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("check marker %s: %w", name, err)
	}
	return count > 0, nil
}

// SetMarker sets the named marker. Idempotent.
func SetMarker(db *sql.DB, name string) error {
	return RetryWithBackoff(context.Background(), func() error {
		_, err := db.ExecContext(context.Background(), `INSERT OR IGNORE INTO markers (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("set marker %s: %w", name, err)
		}
		return nil
	})
}

// ClearMarker clears the named marker. Idempotent.
func ClearMarker(db *sql.DB, name string) error {
	return RetryWithBackoff(context.Background(), func() error {
		_, err := db.ExecContext(context.Background(), `DELETE FROM markers WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("clear marker %s: %w", name, err)
		}
		return nil
	})
}

// ClearMarkers clears every named marker, used by stop-hook exit paths that
// reset session state in bulk (problem-mode exit, JKW session end).
func ClearMarkers(db *sql.DB, names ...string) error {
	for _, n := range names {
		if err := ClearMarker(db, n); err != nil {
			return err
		}
	}
	return nil
}
