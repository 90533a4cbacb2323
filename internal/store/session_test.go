package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/reliability/internal/models"
)

func TestSessionStateLifecycle(t *testing.T) {
	db := setupTestDB(t)

	s, err := GetSessionState(db)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, PutSessionState(db, models.SessionState{
		Iteration:                3,
		LastIssueChangeIteration: 1,
		GitDiffHash:              "abc123",
		IssueSnapshot:            []string{"issue-1", "issue-2"},
	}))

	s, err = GetSessionState(db)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Iteration)
	assert.Equal(t, "abc123", s.GitDiffHash)
	assert.ElementsMatch(t, []string{"issue-1", "issue-2"}, s.IssueSnapshot)

	require.NoError(t, PutSessionState(db, models.SessionState{Iteration: 4}))
	s, err = GetSessionState(db)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 4, s.Iteration)
	assert.Empty(t, s.IssueSnapshot)

	require.NoError(t, ClearSessionState(db))
	s, err = GetSessionState(db)
	require.NoError(t, err)
	assert.Nil(t, s)
}
