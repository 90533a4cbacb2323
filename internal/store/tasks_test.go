package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/reliability/internal/models"
)

func TestCreateTaskDefaultsToOpen(t *testing.T) {
	db := setupTestDB(t)

	task, err := CreateTask(db, "Fix the parser", "handles malformed input", 1)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, task.Status)
	assert.Equal(t, 1, task.Priority)
	assert.Empty(t, task.DependsOn)
}

func TestCreateTaskRejectsInvalidPriority(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateTask(db, "Bad task", "", 9)
	require.Error(t, err)
	var invalid *models.InvalidFieldError
	assert.ErrorAs(t, err, &invalid)
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateTask(db, "   ", "", 2)
	require.Error(t, err)
}

func TestGetTaskNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetTask(db, "does-not-exist")
	require.Error(t, err)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateTaskEmptyIsNoOp(t *testing.T) {
	db := setupTestDB(t)

	task, err := CreateTask(db, "Write docs", "", 3)
	require.NoError(t, err)

	same, err := UpdateTask(db, task.ID, TaskUpdate{})
	require.NoError(t, err)
	assert.Equal(t, task.Title, same.Title)
	assert.Equal(t, task.Status, same.Status)
}

func TestUpdateTaskChangesFields(t *testing.T) {
	db := setupTestDB(t)

	task, err := CreateTask(db, "Write docs", "", 3)
	require.NoError(t, err)

	newTitle := "Write better docs"
	newPriority := 0
	updated, err := UpdateTask(db, task.ID, TaskUpdate{Title: &newTitle, Priority: &newPriority})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, 0, updated.Priority)
}

func TestUpdateTaskRejectsInvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	task, err := CreateTask(db, "Ship it", "", 2)
	require.NoError(t, err)

	bogus := models.TaskStatus("done")
	_, err = UpdateTask(db, task.ID, TaskUpdate{Status: &bogus})
	require.Error(t, err)
}

func TestListTasksOrdersByPriorityThenAge(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateTask(db, "low priority", "", 3)
	require.NoError(t, err)
	urgent, err := CreateTask(db, "urgent", "", 0)
	require.NoError(t, err)

	tasks, err := ListTasks(db, TaskFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, urgent.ID, tasks[0].ID)
}

func TestListTasksFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)

	open, err := CreateTask(db, "open task", "", 2)
	require.NoError(t, err)
	abandoned, err := CreateTask(db, "abandoned task", "", 2)
	require.NoError(t, err)
	abandonedStatus := models.TaskStatusAbandoned
	_, err = UpdateTask(db, abandoned.ID, TaskUpdate{Status: &abandonedStatus})
	require.NoError(t, err)

	tasks, err := ListTasks(db, TaskFilter{Status: models.TaskStatusOpen}, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}

func TestDeleteTaskCascadesAndUnblocksDependents(t *testing.T) {
	db := setupTestDB(t)

	blocker, err := CreateTask(db, "blocker", "", 2)
	require.NoError(t, err)
	dependent, err := CreateTask(db, "dependent", "", 2)
	require.NoError(t, err)

	require.NoError(t, AddDependency(db, dependent.ID, blocker.ID))
	reloaded, err := GetTask(db, dependent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusBlocked, reloaded.Status)

	require.NoError(t, DeleteTask(db, blocker.ID))

	reloaded, err = GetTask(db, dependent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, reloaded.Status)
	assert.Empty(t, reloaded.DependsOn)
}
