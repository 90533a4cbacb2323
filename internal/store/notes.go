package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
)

// AddNote appends a free-text note to a task, oldest-first on retrieval.
func AddNote(db *sql.DB, taskID, content string) (*models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &models.InvalidFieldError{Field: "content", Value: "", Allowed: "non-empty string"}
	}

	var note *models.Note
	err := Transact(db, func(tx *sql.Tx) error {
		if _, err := getTaskTx(tx, taskID); err != nil {
			return err
		}
		res, err := tx.ExecContext(context.Background(), `
			INSERT INTO task_notes (task_id, content) VALUES (?, ?)
		`, taskID, content)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("note id: %w", err)
		}

		row := tx.QueryRowContext(context.Background(), `SELECT id, task_id, content, created_at FROM task_notes WHERE id = ?`, id)
		var n models.Note
		if err := row.Scan(&n.ID, &n.TaskID, &n.Content, &n.CreatedAt); err != nil {
			return fmt.Errorf("load note: %w", err)
		}
		note = &n

		return appendAuditTx(tx, "add_note", taskID, "", content, "")
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// GetNotes returns every note attached to taskID, oldest first.
func GetNotes(db *sql.DB, taskID string) ([]*models.Note, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, task_id, content, created_at FROM task_notes WHERE task_id = ? ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a single note by ID.
func DeleteNote(db *sql.DB, noteID int64) error {
	return Transact(db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(context.Background(), `DELETE FROM task_notes WHERE id = ?`, noteID)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "note", ID: fmt.Sprint(noteID)}
		}
		return nil
	})
}
