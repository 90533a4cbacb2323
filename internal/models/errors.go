package models

// RecoverableError is implemented by structured errors that carry enough
// context for a caller (CLI or hook) to retry or explain the failure to the
// agent without inspecting the error string.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// CycleError reports that adding a dependency edge would create a cycle.
type CycleError struct {
	TaskID          string
	DependsOnTaskID string
}

func (e *CycleError) Error() string {
	return "dependency cycle detected: adding " + e.TaskID + " -> " + e.DependsOnTaskID + " would create a cycle"
}
func (e *CycleError) ErrorCode() string { return "DEPENDENCY_CYCLE" }
func (e *CycleError) Context() map[string]string {
	return map[string]string{"task_id": e.TaskID, "depends_on_task_id": e.DependsOnTaskID}
}
func (e *CycleError) SuggestedAction() string {
	return "choose a dependency that does not already depend (transitively) on this task"
}

// NotFoundError reports a missing entity by kind and ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found: " + e.ID }
func (e *NotFoundError) ErrorCode() string { return "NOT_FOUND" }
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{"kind": e.Kind, "id": e.ID}
}
func (e *NotFoundError) SuggestedAction() string { return "verify the id and try again" }

// InvalidFieldError reports an invalid enum/range value on write.
type InvalidFieldError struct {
	Field string
	Value string
	Allowed string
}

func (e *InvalidFieldError) Error() string {
	return "invalid " + e.Field + " " + e.Value + ": must be one of " + e.Allowed
}
func (e *InvalidFieldError) ErrorCode() string { return "INVALID_FIELD" }
func (e *InvalidFieldError) Context() map[string]string {
	return map[string]string{"field": e.Field, "value": e.Value, "allowed": e.Allowed}
}
func (e *InvalidFieldError) SuggestedAction() string { return "use one of the allowed values" }
