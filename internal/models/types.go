// Package models defines the shared data shapes persisted by the state
// store and passed between the lifecycle decision engines.
package models

import "time"

// Marker names (Markers). Presence in the markers table means true.
const (
	MarkerProblemMode       = "problem_mode"
	MarkerJKWSetupRequired  = "jkw_setup_required"
	MarkerNeedsValidation   = "needs_validation"
	MarkerMustReflect       = "must_reflect"
	MarkerBeadsWarning      = "beads_warning"
	MarkerEmergencyStop     = "emergency_stop"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task status constants (Task graph).
const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusComplete  TaskStatus = "complete"
	TaskStatusAbandoned TaskStatus = "abandoned"
	TaskStatusStuck     TaskStatus = "stuck"
	TaskStatusBlocked   TaskStatus = "blocked"
)

// Priority levels (Task graph), 0 highest.
const (
	PriorityCritical = 0
	PriorityHigh     = 1
	PriorityMedium   = 2
	PriorityLow      = 3
	PriorityBacklog  = 4
)

// IsTerminal reports whether the status can never auto-transition again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusAbandoned
}

// Task is a unit of work tracked by the Task/Work Surface.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"` // 0 (critical) .. 4
	Status      TaskStatus `json:"status"`
	InProgress  bool       `json:"in_progress"`
	Requested   bool       `json:"requested"`
	DependsOn   []string   `json:"depends_on,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsReady reports whether the task's own status allows it to be worked,
// ignoring (separately-checked) blocking questions.
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusOpen
}

// HowTo is reusable guidance linked to zero or more tasks.
type HowTo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Question is a blocking or informational question linked to zero or more tasks.
type Question struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Answer    string     `json:"answer,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// IsAnswered reports whether the question has a recorded answer.
func (q *Question) IsAnswered() bool {
	return q.Answer != ""
}

// Note is a free-text annotation attached to a task, oldest-first on retrieval.
type Note struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry is an immutable record of a mutation to the task graph.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	TaskID    string    `json:"task_id,omitempty"`
	OldValue  string    `json:"old_value,omitempty"` // JSON
	NewValue  string    `json:"new_value,omitempty"` // JSON
	Details   string    `json:"details,omitempty"`
}

// SessionState is the singleton JKW ("just-keep-working") iteration tracker.
type SessionState struct {
	Iteration               int      `json:"iteration"`
	LastIssueChangeIteration int     `json:"last_issue_change_iteration"`
	GitDiffHash              string  `json:"git_diff_hash,omitempty"`
	IssueSnapshot            []string `json:"issue_snapshot"`
}

// TranscriptRecord is the in-memory, never-persisted extraction from the
// host's JSONL conversation log.
type TranscriptRecord struct {
	LastAssistantOutput          string
	LastUserMessageTime          time.Time
	HasAPIError                  bool
	ConsecutiveAPIErrors         int
	HasModifyingToolUse          bool
	HasModifyingToolUseSinceUser bool
	FirstUserMessage             string
	LastUserMessage              string
}
