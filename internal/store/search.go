package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
)

var searchTokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// ftsQuery translates a free-text search phrase into an FTS5 MATCH
// expression: every token is double-quoted (so punctuation inside a token
// cannot be read as FTS5 query syntax) and suffixed with `*` for
// prefix matching, then ANDed together (FTS query translation).
func ftsQuery(phrase string) string {
	tokens := searchTokenPattern.FindAllString(phrase, -1)
	if len(tokens) == 0 {
		return `""`
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = fmt.Sprintf(`"%s"*`, t)
	}
	return strings.Join(quoted, " AND ")
}

// SearchTasks runs phrase against the tasks FTS index and returns matching
// tasks ranked by FTS5's bm25 relevance.
func SearchTasks(db *sql.DB, phrase string, limit int) ([]*models.Task, error) {
	query := `
		SELECT t.id, t.title, t.description, t.priority, t.status, t.in_progress, t.requested, t.created_at, t.updated_at
		FROM tasks_fts f
		JOIN tasks t ON t.id = f.id
		WHERE tasks_fts MATCH ?
		ORDER BY bm25(tasks_fts)
	`
	args := []any{ftsQuery(phrase)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		deps, err := queryStringColumnDB(db, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load dependencies for %s: %w", t.ID, err)
		}
		t.DependsOn = deps
	}
	return out, nil
}

// SearchNotes runs phrase against the task_notes FTS index, returning
// matching notes ranked by relevance.
func SearchNotes(db *sql.DB, phrase string, limit int) ([]*models.Note, error) {
	query := `
		SELECT n.id, n.task_id, n.content, n.created_at
		FROM task_notes_fts f
		JOIN task_notes n ON n.id = f.rowid
		WHERE task_notes_fts MATCH ?
		ORDER BY bm25(task_notes_fts)
	`
	args := []any{ftsQuery(phrase)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// SearchHowTos runs phrase against the howtos FTS index.
func SearchHowTos(db *sql.DB, phrase string, limit int) ([]*models.HowTo, error) {
	query := `
		SELECT h.id, h.title, h.instructions, h.created_at, h.updated_at
		FROM howtos_fts f
		JOIN howtos h ON h.id = f.id
		WHERE howtos_fts MATCH ?
		ORDER BY bm25(howtos_fts)
	`
	args := []any{ftsQuery(phrase)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search howtos: %w", err)
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

// SearchQuestions runs phrase against the questions FTS index.
func SearchQuestions(db *sql.DB, phrase string, limit int) ([]*models.Question, error) {
	query := `
		SELECT q.id, q.text, q.answer, q.created_at, q.answered_at
		FROM questions_fts f
		JOIN questions q ON q.id = f.id
		WHERE questions_fts MATCH ?
		ORDER BY bm25(questions_fts)
	`
	args := []any{ftsQuery(phrase)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Question
	for rows.Next() {
		var q models.Question
		var answer sql.NullString
		var answeredAt sql.NullTime
		if err := rows.Scan(&q.ID, &q.Text, &answer, &q.CreatedAt, &answeredAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Answer = answer.String
		if answeredAt.Valid {
			t := answeredAt.Time
			q.AnsweredAt = &t
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// ReadyTasks returns every task that is actually workable right now: status
// "open" (so its dependencies are already satisfied; see recomputeBlockedTx)
// AND no linked blocking question is still unanswered, checked here as an
// independent readiness dimension rather than folded into status. Ordered
// by priority (0 = critical, first) then creation order.
func ReadyTasks(db *sql.DB) ([]*models.Task, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT t.id, t.title, t.description, t.priority, t.status, t.in_progress, t.requested, t.created_at, t.updated_at
		FROM tasks t
		WHERE t.status = ?
		AND NOT EXISTS (
			SELECT 1
			FROM task_blocking_questions b
			JOIN questions q ON q.id = b.question_id
			WHERE b.task_id = t.id AND (q.answer IS NULL OR q.answer = '')
		)
		ORDER BY t.priority ASC, t.created_at ASC
	`, string(models.TaskStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("list ready tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		deps, err := queryStringColumnDB(db, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load dependencies for %s: %w", t.ID, err)
		}
		t.DependsOn = deps
	}
	return out, nil
}

// PickTask chooses uniformly at random among the ready tasks that share the
// lowest (most urgent) priority value, so the harness doesn't always hand
// the agent the oldest task when several are equally urgent (
// pick_task()). Returns nil, nil when nothing is ready.
func PickTask(db *sql.DB) (*models.Task, error) {
	ready, err := ReadyTasks(db)
	if err != nil {
		return nil, err
	}
	if len(ready) == 0 {
		return nil, nil
	}

	best := ready[0].Priority
	var candidates []*models.Task
	for _, t := range ready {
		switch {
		case t.Priority < best:
			best = t.Priority
			candidates = []*models.Task{t}
		case t.Priority == best:
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return candidates[secureRandIndex(len(candidates))], nil
}

// secureRandIndex returns a uniform random index in [0, n) using
// crypto/rand, since math/rand's global source is disallowed by policy in
// favor of a non-predictable picker even for this low-stakes tie-break.
func secureRandIndex(n int) int {
	if n <= 1 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(b[:]) % uint64(n))
}
