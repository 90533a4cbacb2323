package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHowToCRUD(t *testing.T) {
	db := setupTestDB(t)

	h, err := CreateHowTo(db, "how to run tests", "go test ./...")
	require.NoError(t, err)
	assert.Equal(t, "how to run tests", h.Title)

	fetched, err := GetHowTo(db, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Instructions, fetched.Instructions)

	list, err := ListHowTos(db)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, DeleteHowTo(db, h.ID))
	_, err = GetHowTo(db, h.ID)
	require.Error(t, err)
}

func TestGuidanceLinking(t *testing.T) {
	db := setupTestDB(t)

	task, err := CreateTask(db, "task needing guidance", "", 2)
	require.NoError(t, err)
	h, err := CreateHowTo(db, "how to deploy", "run the deploy script")
	require.NoError(t, err)

	require.NoError(t, LinkGuidance(db, task.ID, h.ID))

	guidance, err := GuidanceForTask(db, task.ID)
	require.NoError(t, err)
	require.Len(t, guidance, 1)
	assert.Equal(t, h.ID, guidance[0].ID)

	require.NoError(t, UnlinkGuidance(db, task.ID, h.ID))
	guidance, err = GuidanceForTask(db, task.ID)
	require.NoError(t, err)
	assert.Empty(t, guidance)
}
