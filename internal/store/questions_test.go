package store

import (
	"testing"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionLifecycle(t *testing.T) {
	db := setupTestDB(t)

	q, err := CreateQuestion(db, "should we rename the package?")
	require.NoError(t, err)
	assert.False(t, q.IsAnswered())

	answered, err := AnswerQuestion(db, q.ID, "yes, to internal/work")
	require.NoError(t, err)
	assert.True(t, answered.IsAnswered())
	assert.NotNil(t, answered.AnsweredAt)
}

func TestBlockingQuestionAffectsReadinessNotStatus(t *testing.T) {
	db := setupTestDB(t)

	task, err := CreateTask(db, "task pending decision", "", 2)
	require.NoError(t, err)
	q, err := CreateQuestion(db, "which approach?")
	require.NoError(t, err)

	require.NoError(t, LinkBlockingQuestion(db, task.ID, q.ID))

	reloaded, err := GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, reloaded.Status, "a blocking question never changes status, only readiness")

	blocking, err := QuestionsBlockingTask(db, task.ID)
	require.NoError(t, err)
	require.Len(t, blocking, 1)

	ready, err := ReadyTasks(db)
	require.NoError(t, err)
	assert.Empty(t, ready, "an open task with an unanswered blocking question is not ready")

	_, err = AnswerQuestion(db, q.ID, "approach B")
	require.NoError(t, err)

	reloaded, err = GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, reloaded.Status)

	ready, err = ReadyTasks(db)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, task.ID, ready[0].ID)
}

func TestUnansweredQuestions(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateQuestion(db, "open question")
	require.NoError(t, err)
	answered, err := CreateQuestion(db, "will be answered")
	require.NoError(t, err)
	_, err = AnswerQuestion(db, answered.ID, "done")
	require.NoError(t, err)

	open, err := UnansweredQuestions(db)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "open question", open[0].Text)
}
