package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotcommander/reliability/internal/models"
)

// maxCycleSearchNodes bounds the BFS below so a pathological dependency
// graph cannot turn a single write into an unbounded scan.
const maxCycleSearchNodes = 1000

// AddDependency records that taskID depends on dependsOnID, rejecting the
// edge if it would create a cycle (/: add_dependency(A, B) succeeds iff
// no path from B to A exists), then recomputes taskID's blocked status.
func AddDependency(db *sql.DB, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return &models.CycleError{TaskID: taskID, DependsOnTaskID: dependsOnID}
	}
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := getTaskTx(tx, taskID); err != nil {
			return err
		}
		if _, err := getTaskTx(tx, dependsOnID); err != nil {
			return err
		}

		cyclic, err := pathExistsTx(tx, dependsOnID, taskID)
		if err != nil {
			return err
		}
		if cyclic {
			return &models.CycleError{TaskID: taskID, DependsOnTaskID: dependsOnID}
		}

		_, err = tx.ExecContext(context.Background(), `
			INSERT OR IGNORE INTO task_dependencies (task_id, depends_on_task_id)
			VALUES (?, ?)
		`, taskID, dependsOnID)
		if err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}

		if err := recomputeBlockedTx(tx, taskID); err != nil {
			return err
		}
		return appendAuditTx(tx, "add_dependency", taskID, "", dependsOnID, "")
	})
}

// RemoveDependency deletes the edge and re-evaluates whether taskID can
// unblock.
func RemoveDependency(db *sql.DB, taskID, dependsOnID string) error {
	return Transact(db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(context.Background(), `
			DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?
		`, taskID, dependsOnID)
		if err != nil {
			return fmt.Errorf("remove dependency: %w", err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return &models.NotFoundError{Kind: "task_dependency", ID: taskID + "->" + dependsOnID}
		}

		if err := recomputeBlockedTx(tx, taskID); err != nil {
			return err
		}
		return appendAuditTx(tx, "remove_dependency", taskID, dependsOnID, "", "")
	})
}

// pathExistsTx reports whether a directed path exists from `from` to `to`
// in the dependency graph, via breadth-first search over the
// task_dependencies edges, capped at maxCycleSearchNodes visits.
func pathExistsTx(tx *sql.Tx, from, to string) (bool, error) {
	if from == to {
		return true, nil
	}
	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 && len(visited) <= maxCycleSearchNodes {
		node := queue[0]
		queue = queue[1:]

		next, err := queryStringColumn(tx, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ?`, node)
		if err != nil {
			return false, fmt.Errorf("walk dependency graph: %w", err)
		}
		for _, n := range next {
			if n == to {
				return true, nil
			}
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false, nil
}

// GetTaskDependencies returns the IDs of tasks that taskID depends on.
func GetTaskDependencies(db *sql.DB, taskID string) ([]string, error) {
	return queryStringColumnDB(db, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ? ORDER BY created_at ASC`, taskID)
}

// GetTaskDependents returns the IDs of tasks that depend on taskID.
func GetTaskDependents(db *sql.DB, taskID string) ([]string, error) {
	return queryStringColumnDB(db, `SELECT task_id FROM task_dependencies WHERE depends_on_task_id = ? ORDER BY created_at ASC`, taskID)
}

// hasUnresolvedDependenciesTx reports whether taskID has any dependency
// whose own status has not reached a terminal state (complete/abandoned).
// A dependency that is itself blocked, stuck, or open still blocks.
func hasUnresolvedDependenciesTx(tx *sql.Tx, taskID string) (bool, error) {
	var count int
	err := tx.QueryRowContext(context.Background(), `
		SELECT COUNT(*)
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.depends_on_task_id
		WHERE d.task_id = ? AND t.status NOT IN ('complete', 'abandoned')
	`, taskID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count unresolved dependencies: %w", err)
	}
	return count > 0, nil
}

// recomputeBlockedTx transitions taskID between open and blocked based
// solely on its dependency state: a task is blocked if and only if it has
// at least one dependency whose status is not in {complete, abandoned}.
// An unanswered blocking question affects readiness (see ReadyTasks) but
// never the blocked status itself, so a task can be open yet not ready.
// Terminal statuses (complete, abandoned) and the manually-set "stuck"
// status are left alone; only the open/blocked pair auto-transitions.
func recomputeBlockedTx(tx *sql.Tx, taskID string) error {
	t, err := getTaskTx(tx, taskID)
	if err != nil {
		return err
	}
	if t.Status.IsTerminal() || t.Status == models.TaskStatusStuck {
		return nil
	}

	blocked, err := hasUnresolvedDependenciesTx(tx, taskID)
	if err != nil {
		return err
	}

	want := models.TaskStatusOpen
	if blocked {
		want = models.TaskStatusBlocked
	}
	if t.Status == want {
		return nil
	}

	_, err = tx.ExecContext(context.Background(), `UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(want), taskID)
	if err != nil {
		return fmt.Errorf("auto-transition task %s to %s: %w", taskID, want, err)
	}
	return nil
}

// recomputeDependentsBlockedTx re-evaluates every task that directly depends
// on taskID, called after taskID's own status changes since that can
// resolve or re-impose a dependent's blocked state.
func recomputeDependentsBlockedTx(tx *sql.Tx, taskID string) error {
	dependents, err := queryStringColumn(tx, `SELECT task_id FROM task_dependencies WHERE depends_on_task_id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("find dependents: %w", err)
	}
	for _, depID := range dependents {
		if err := recomputeBlockedTx(tx, depID); err != nil {
			return err
		}
	}
	return nil
}
