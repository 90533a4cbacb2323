package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
)

// CreateHowTo creates a reusable piece of guidance.
func CreateHowTo(db *sql.DB, title, instructions string) (*models.HowTo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &models.InvalidFieldError{Field: "title", Value: "", Allowed: "non-empty string"}
	}
	var id string
	for attempt := 0; ; attempt++ {
		id = generateSlugID(title)
		err := RetryWithBackoff(context.Background(), func() error {
			_, err := db.ExecContext(context.Background(), `
				INSERT INTO howtos (id, title, instructions, created_at, updated_at)
				VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			`, id, title, instructions)
			return err
		})
		if err == nil {
			break
		}
		if IsUniqueConstraintErr(err) && attempt < maxIDCollisionRetries {
			continue
		}
		return nil, fmt.Errorf("insert howto: %w", err)
	}
	return GetHowTo(db, id)
}

// GetHowTo retrieves a single howto by ID.
func GetHowTo(db *sql.DB, id string) (*models.HowTo, error) {
	var h models.HowTo
	err := db.QueryRowContext(context.Background(), `
		SELECT id, title, instructions, created_at, updated_at FROM howtos WHERE id = ?
	`, id).Scan(&h.ID, &h.Title, &h.Instructions, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "howto", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get howto: %w", err)
	}
	return &h, nil
}

// ListHowTos returns every howto, newest first.
func ListHowTos(db *sql.DB) ([]*models.HowTo, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, title, instructions, created_at, updated_at FROM howtos ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list howtos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.HowTo
	for rows.Next() {
		var h models.HowTo
		if err := rows.Scan(&h.ID, &h.Title, &h.Instructions, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan howto: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

// DeleteHowTo removes a howto and cascades to its task links.
func DeleteHowTo(db *sql.DB, id string) error {
	res, err := db.ExecContext(context.Background(), `DELETE FROM howtos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete howto: %w", err)
	}
	if ra, _ := res.RowsAffected(); ra == 0 {
		return &models.NotFoundError{Kind: "howto", ID: id}
	}
	return nil
}

// LinkGuidance attaches a howto to a task.
func LinkGuidance(db *sql.DB, taskID, howtoID string) error {
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := getTaskTx(tx, taskID); err != nil {
			return err
		}
		_, err := tx.ExecContext(context.Background(), `
			INSERT OR IGNORE INTO task_guidance (task_id, howto_id) VALUES (?, ?)
		`, taskID, howtoID)
		if err != nil {
			return fmt.Errorf("link guidance: %w", err)
		}
		return nil
	})
}

// UnlinkGuidance detaches a howto from a task.
func UnlinkGuidance(db *sql.DB, taskID, howtoID string) error {
	res, err := db.ExecContext(context.Background(), `
		DELETE FROM task_guidance WHERE task_id = ? AND howto_id = ?
	`, taskID, howtoID)
	if err != nil {
		return fmt.Errorf("unlink guidance: %w", err)
	}
	if ra, _ := res.RowsAffected(); ra == 0 {
		return &models.NotFoundError{Kind: "task_guidance", ID: taskID + "->" + howtoID}
	}
	return nil
}

// GuidanceForTask returns every howto linked to taskID.
func GuidanceForTask(db *sql.DB, taskID string) ([]*models.HowTo, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT h.id, h.title, h.instructions, h.created_at, h.updated_at
		FROM howtos h
		JOIN task_guidance g ON g.howto_id = h.id
		WHERE g.task_id = ?
		ORDER BY h.created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task guidance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.HowTo
	for rows.Next() {
		var h models.HowTo
		if err := rows.Scan(&h.ID, &h.Title, &h.Instructions, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task guidance: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
