package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dotcommander/reliability/internal/models"
)

// GetSessionState returns the singleton JKW session row, or nil if no
// session is active.
func GetSessionState(db *sql.DB) (*models.SessionState, error) {
	var s models.SessionState
	var gitHash sql.NullString

	err := RetryWithBackoff(context.Background(), func() error {
		return db.QueryRowContext(context.Background(), `
			SELECT iteration, last_issue_change_iteration, git_diff_hash
			FROM session_state WHERE id = 1
		`).Scan(&s.Iteration, &s.LastIssueChangeIteration, &gitHash)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // "no session" is a valid, common, non-error state
	}
	if err != nil {
		return nil, fmt.Errorf("get session state: %w", err)
	}
	s.GitDiffHash = gitHash.String

	snapshot, err := queryStringColumnDB(db, `SELECT issue_id FROM issue_snapshot ORDER BY issue_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get issue snapshot: %w", err)
	}
	s.IssueSnapshot = snapshot

	return &s, nil
}

// PutSessionState upserts the singleton session row and rewrites the issue
// snapshot set (delete-then-insert, Operations).
func PutSessionState(db *sql.DB, s models.SessionState) error {
	return Transact(db, func(tx *sql.Tx) error {
		var gitHash any
		if s.GitDiffHash != "" {
			gitHash = s.GitDiffHash
		}

		_, err := tx.ExecContext(context.Background(), `
			INSERT INTO session_state (id, iteration, last_issue_change_iteration, git_diff_hash)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				iteration = excluded.iteration,
				last_issue_change_iteration = excluded.last_issue_change_iteration,
				git_diff_hash = excluded.git_diff_hash
		`, s.Iteration, s.LastIssueChangeIteration, gitHash)
		if err != nil {
			return fmt.Errorf("upsert session state: %w", err)
		}

		if _, err := tx.ExecContext(context.Background(), `DELETE FROM issue_snapshot`); err != nil {
			return fmt.Errorf("clear issue snapshot: %w", err)
		}
		for _, id := range s.IssueSnapshot {
			if _, err := tx.ExecContext(context.Background(), `INSERT OR IGNORE INTO issue_snapshot (issue_id) VALUES (?)`, id); err != nil {
				return fmt.Errorf("insert issue snapshot entry %q: %w", id, err)
			}
		}
		return nil
	})
}

// ClearSessionState clears the JKW session (lifecycle: cleared when JKW ends).
func ClearSessionState(db *sql.DB) error {
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(context.Background(), `DELETE FROM session_state`); err != nil {
			return fmt.Errorf("clear session state: %w", err)
		}
		if _, err := tx.ExecContext(context.Background(), `DELETE FROM issue_snapshot`); err != nil {
			return fmt.Errorf("clear issue snapshot: %w", err)
		}
		return nil
	})
}

func queryStringColumnDB(db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
