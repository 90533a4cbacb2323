package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotcommander/reliability/internal/models"
)

// appendAuditTx inserts one append-only audit row. There is deliberately no
// update or delete path: the log is write-once by construction.
func appendAuditTx(tx *sql.Tx, operation, taskID, oldValue, newValue, details string) error {
	_, err := tx.ExecContext(context.Background(), `
		INSERT INTO task_audit_log (operation, task_id, old_value, new_value, details)
		VALUES (?, ?, ?, ?, ?)
	`, operation, nullableString(taskID), nullableString(oldValue), nullableString(newValue), nullableString(details))
	if err != nil {
		return fmt.Errorf("append audit entry %s: %w", operation, err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// AuditFilter narrows GetAuditLog; zero values are unfiltered.
type AuditFilter struct {
	TaskID string
	Limit  int
}

// GetAuditLog returns audit entries newest-first, optionally scoped to a
// single task and/or capped at Limit rows.
func GetAuditLog(db *sql.DB, filter AuditFilter) ([]*models.AuditEntry, error) {
	query := `SELECT id, timestamp, operation, task_id, old_value, new_value, details FROM task_audit_log WHERE 1=1`
	var args []any
	if filter.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, filter.TaskID)
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var taskID, oldValue, newValue, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Operation, &taskID, &oldValue, &newValue, &details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.TaskID = taskID.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.Details = details.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
