package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
)

// CreateQuestion records a new, unanswered question.
func CreateQuestion(db *sql.DB, text string) (*models.Question, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &models.InvalidFieldError{Field: "text", Value: "", Allowed: "non-empty string"}
	}
	id := generateSlugID(text)
	err := RetryWithBackoff(context.Background(), func() error {
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO questions (id, text, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		`, id, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return GetQuestion(db, id)
}

// GetQuestion retrieves a single question.
func GetQuestion(db *sql.DB, id string) (*models.Question, error) {
	var q models.Question
	var answer sql.NullString
	var answeredAt sql.NullTime
	err := db.QueryRowContext(context.Background(), `
		SELECT id, text, answer, created_at, answered_at FROM questions WHERE id = ?
	`, id).Scan(&q.ID, &q.Text, &answer, &q.CreatedAt, &answeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "question", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	q.Answer = answer.String
	if answeredAt.Valid {
		t := answeredAt.Time
		q.AnsweredAt = &t
	}
	return &q, nil
}

// AnswerQuestion records an answer. Any task this question blocks becomes
// ready again (see ReadyTasks) without any change to its status.
func AnswerQuestion(db *sql.DB, id, answer string) (*models.Question, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, &models.InvalidFieldError{Field: "answer", Value: "", Allowed: "non-empty string"}
	}

	var q *models.Question
	err := Transact(db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(context.Background(), `
			UPDATE questions SET answer = ?, answered_at = CURRENT_TIMESTAMP WHERE id = ?
		`, answer, id)
		if err != nil {
			return fmt.Errorf("answer question: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "question", ID: id}
		}

		if err := appendAuditTx(tx, "answer_question", "", "", answer, "question_id="+id); err != nil {
			return err
		}

		row := tx.QueryRowContext(context.Background(), `SELECT id, text, answer, created_at, answered_at FROM questions WHERE id = ?`, id)
		var loaded models.Question
		var ans sql.NullString
		var answeredAt sql.NullTime
		if err := row.Scan(&loaded.ID, &loaded.Text, &ans, &loaded.CreatedAt, &answeredAt); err != nil {
			return fmt.Errorf("reload question: %w", err)
		}
		loaded.Answer = ans.String
		if answeredAt.Valid {
			t := answeredAt.Time
			loaded.AnsweredAt = &t
		}
		q = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// LinkBlockingQuestion marks taskID as blocked on questionID. This affects
// readiness (see ReadyTasks) but not the task's status, which continues to
// track the dependency graph only.
func LinkBlockingQuestion(db *sql.DB, taskID, questionID string) error {
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := getTaskTx(tx, taskID); err != nil {
			return err
		}
		_, err := tx.ExecContext(context.Background(), `
			INSERT OR IGNORE INTO task_blocking_questions (task_id, question_id) VALUES (?, ?)
		`, taskID, questionID)
		if err != nil {
			return fmt.Errorf("link blocking question: %w", err)
		}
		return nil
	})
}

// UnlinkBlockingQuestion removes the block on taskID from questionID.
func UnlinkBlockingQuestion(db *sql.DB, taskID, questionID string) error {
	return Transact(db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(context.Background(), `
			DELETE FROM task_blocking_questions WHERE task_id = ? AND question_id = ?
		`, taskID, questionID)
		if err != nil {
			return fmt.Errorf("unlink blocking question: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "task_blocking_question", ID: taskID + "->" + questionID}
		}
		return nil
	})
}

// QuestionsBlockingTask returns the unanswered questions currently blocking taskID.
func QuestionsBlockingTask(db *sql.DB, taskID string) ([]*models.Question, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT q.id, q.text, q.answer, q.created_at, q.answered_at
		FROM questions q
		JOIN task_blocking_questions b ON b.question_id = q.id
		WHERE b.task_id = ?
		ORDER BY q.created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query blocking questions: %w", err)
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

// UnansweredQuestions returns every question without a recorded answer.
func UnansweredQuestions(db *sql.DB) ([]*models.Question, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, text, answer, created_at, answered_at FROM questions
		WHERE answer IS NULL OR answer = ''
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query unanswered questions: %w", err)
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
