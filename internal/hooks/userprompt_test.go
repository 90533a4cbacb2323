package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPromptSubmitClearsMustReflectAndNeedsValidation(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, store.SetMarker(db, models.MarkerMustReflect))
	require.NoError(t, store.SetMarker(db, models.MarkerNeedsValidation))

	UserPromptSubmit(UserPromptDeps{DB: db, ProjectPath: t.TempDir()}, Input{})

	has, err := store.HasMarker(db, models.MarkerMustReflect)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = store.HasMarker(db, models.MarkerNeedsValidation)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUserPromptSubmitNoMessageOnPlainPrompt(t *testing.T) {
	db := newTestDB(t)
	out := UserPromptSubmit(UserPromptDeps{DB: db, ProjectPath: t.TempDir()}, Input{})
	assert.Empty(t, out.SystemMessage)
}

func TestUserPromptSubmitRemindsAfterCompaction(t *testing.T) {
	db := newTestDB(t)
	out := UserPromptSubmit(UserPromptDeps{DB: db, ProjectPath: t.TempDir()}, Input{IsCompactSummary: true})
	assert.Contains(t, out.SystemMessage, "compacted")
}

func TestCheckBinaryLocationNoWarningWhenExpectedDirAbsent(t *testing.T) {
	_, stale := checkBinaryLocation(t.TempDir())
	assert.False(t, stale)
}

func TestCheckBinaryLocationWarnsWhenRunningOutsideExpectedDir(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, expectedBinaryRelDir), 0o750))

	warning, stale := checkBinaryLocation(project)
	assert.True(t, stale)
	assert.Contains(t, warning, "cache location")
}

func TestCheckBinaryLocationEmptyProjectPathNeverWarns(t *testing.T) {
	_, stale := checkBinaryLocation("")
	assert.False(t, stale)
}
