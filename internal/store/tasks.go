package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
)

// TaskUpdate is a partial update; nil fields are left unchanged and an
// empty update is a no-op.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *int
	Status      *models.TaskStatus
	InProgress  *bool
	Requested   *bool
}

// IsEmpty reports whether the update touches no fields.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Status == nil && u.InProgress == nil && u.Requested == nil
}

var validStatuses = map[models.TaskStatus]bool{
	models.TaskStatusOpen: true, models.TaskStatusComplete: true,
	models.TaskStatusAbandoned: true, models.TaskStatusStuck: true, models.TaskStatusBlocked: true,
}

// CreateTask creates a task in status "open" unless it is born already
// blocked by a caller-supplied dependency (callers add dependencies
// afterward via AddDependency, which re-evaluates blocked status itself).
func CreateTask(db *sql.DB, title, description string, priority int) (*models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title is required")
	}
	if priority < 0 || priority > 4 {
		return nil, &models.InvalidFieldError{Field: "priority", Value: fmt.Sprint(priority), Allowed: "0-4"}
	}

	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var id string
		var err error
		for attempt := 0; ; attempt++ {
			id = generateSlugID(title)
			_, err = tx.ExecContext(context.Background(), `
				INSERT INTO tasks (id, title, description, priority, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, 'open', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			`, id, title, description, priority)
			if err == nil {
				break
			}
			if IsUniqueConstraintErr(err) && attempt < maxIDCollisionRetries {
				continue
			}
			return fmt.Errorf("insert task: %w", err)
		}

		if err := appendAuditTx(tx, "task_create", id, "", mustJSON(map[string]any{
			"title": title, "priority": priority,
		}), ""); err != nil {
			return err
		}

		t, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func getTaskTx(tx *sql.Tx, id string) (*models.Task, error) {
	row := tx.QueryRowContext(context.Background(), `
		SELECT id, title, description, priority, status, in_progress, requested, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	deps, err := queryStringColumn(tx, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	t.DependsOn = deps
	return t, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var status string
	var inProgress, requested int
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &status, &inProgress, &requested, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "task", ID: ""}
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Status = models.TaskStatus(status)
	t.InProgress = inProgress != 0
	t.Requested = requested != 0
	return &t, nil
}

// GetTask retrieves a single task by ID, including its dependency list.
func GetTask(db *sql.DB, id string) (*models.Task, error) {
	var task *models.Task
	err := RetryWithBackoff(context.Background(), func() error {
		row := db.QueryRowContext(context.Background(), `
			SELECT id, title, description, priority, status, in_progress, requested, created_at, updated_at
			FROM tasks WHERE id = ?
		`, id)
		t, err := scanTask(row)
		if err != nil {
			var nf *models.NotFoundError
			if errors.As(err, &nf) {
				nf.ID = id
			}
			return err
		}
		deps, err := queryStringColumnDB(db, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, id)
		if err != nil {
			return fmt.Errorf("load dependencies: %w", err)
		}
		t.DependsOn = deps
		task = t
		return nil
	})
	return task, err
}

// TaskFilter narrows ListTasks results. Empty string means unfiltered.
type TaskFilter struct {
	Status models.TaskStatus
}

// ListTasks returns tasks matching filter, ordered by priority ascending
// then created_at ascending (most urgent, oldest first).
func ListTasks(db *sql.DB, filter TaskFilter, limit int) ([]*models.Task, error) {
	query := `SELECT id, title, description, priority, status, in_progress, requested, created_at, updated_at FROM tasks WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY priority ASC, created_at ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		deps, err := queryStringColumnDB(db, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load dependencies for %s: %w", t.ID, err)
		}
		t.DependsOn = deps
	}
	return tasks, nil
}

// UpdateTask applies a partial update, recomputes blocked status for the
// task and (on status change) its dependents, and records an audit entry.
// An empty update is a no-op that still returns the current task.
func UpdateTask(db *sql.DB, id string, update TaskUpdate) (*models.Task, error) {
	if update.IsEmpty() {
		return GetTask(db, id)
	}
	if update.Status != nil && !validStatuses[*update.Status] {
		return nil, &models.InvalidFieldError{Field: "status", Value: string(*update.Status), Allowed: "open, complete, abandoned, stuck, blocked"}
	}
	if update.Priority != nil && (*update.Priority < 0 || *update.Priority > 4) {
		return nil, &models.InvalidFieldError{Field: "priority", Value: fmt.Sprint(*update.Priority), Allowed: "0-4"}
	}

	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		before, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}

		set := []string{"updated_at = CURRENT_TIMESTAMP"}
		var args []any
		if update.Title != nil {
			set = append(set, "title = ?")
			args = append(args, *update.Title)
		}
		if update.Description != nil {
			set = append(set, "description = ?")
			args = append(args, *update.Description)
		}
		if update.Priority != nil {
			set = append(set, "priority = ?")
			args = append(args, *update.Priority)
		}
		if update.Status != nil {
			set = append(set, "status = ?")
			args = append(args, string(*update.Status))
		}
		if update.InProgress != nil {
			set = append(set, "in_progress = ?")
			args = append(args, boolToInt(*update.InProgress))
		}
		if update.Requested != nil {
			set = append(set, "requested = ?")
			args = append(args, boolToInt(*update.Requested))
		}
		args = append(args, id)

		res, err := tx.ExecContext(context.Background(), fmt.Sprintf( //nolint:gosec // G201: set clauses are fixed column names, never user input
			`UPDATE tasks SET %s WHERE id = ?`, strings.Join(set, ", "),
		), args...)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "task", ID: id}
		}

		after, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}

		if err := recomputeBlockedTx(tx, id); err != nil {
			return err
		}
		// Status transitions can change whether dependents remain blocked.
		if update.Status != nil && *update.Status != before.Status {
			if err := recomputeDependentsBlockedTx(tx, id); err != nil {
				return err
			}
		}

		if err := appendAuditTx(tx, "task_update", id, mustJSON(before), mustJSON(after)); err != nil {
			return err
		}

		final, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}
		task = final
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and cascades to its notes, dependencies,
// guidance links, and blocking-question links, then re-evaluates the
// blocked status of its former dependents (Cascading delete).
func DeleteTask(db *sql.DB, id string) error {
	return Transact(db, func(tx *sql.Tx) error {
		dependents, err := queryStringColumn(tx, `SELECT task_id FROM task_dependencies WHERE depends_on_task_id = ?`, id)
		if err != nil {
			return fmt.Errorf("find dependents: %w", err)
		}

		res, err := tx.ExecContext(context.Background(), `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "task", ID: id}
		}

		for _, depID := range dependents {
			if err := recomputeBlockedTx(tx, depID); err != nil {
				return err
			}
		}

		return appendAuditTx(tx, "task_delete", id, "", "")
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
