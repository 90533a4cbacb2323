package hooks

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.InitDBWithPath(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseDB(db) })
	return db
}

func rawToolInput(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestPreToolUseBlocksOnEmergencyStop(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, store.SetMarker(db, models.MarkerEmergencyStop))

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{ToolName: "Bash"})
	assert.Equal(t, PermissionBlock, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseJKWSkillSetsMarkerWhenSessionFileAbsent(t *testing.T) {
	db := newTestDB(t)
	project := t.TempDir()

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: project}, Input{
		ToolName:  "Skill",
		ToolInput: rawToolInput(t, map[string]any{"skill": "just-keep-working"}),
	})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)

	has, err := store.HasMarker(db, models.MarkerJKWSetupRequired)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPreToolUseJKWSkillNoMarkerWhenSessionFileExists(t *testing.T) {
	db := newTestDB(t)
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".claude", "jkw-session.local.md"), []byte("# notes"), 0o600))

	PreToolUse(PreToolDeps{DB: db, ProjectPath: project}, Input{
		ToolName:  "Skill",
		ToolInput: rawToolInput(t, map[string]any{"skill": "just-keep-working"}),
	})

	has, err := store.HasMarker(db, models.MarkerJKWSetupRequired)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPreToolUseBlocksWriteWhenJKWSetupRequired(t *testing.T) {
	db := newTestDB(t)
	project := t.TempDir()
	require.NoError(t, store.SetMarker(db, models.MarkerJKWSetupRequired))

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: project}, Input{
		ToolName:  "Write",
		ToolInput: rawToolInput(t, map[string]any{"file_path": "src/main.rs"}),
	})
	assert.Equal(t, PermissionBlock, out.HookSpecificOutput.PermissionDecision)
	assert.Contains(t, out.HookSpecificOutput.AdditionalContext, "session file")
}

func TestPreToolUseAllowsWriteToSessionFileWhenJKWSetupRequired(t *testing.T) {
	db := newTestDB(t)
	project := t.TempDir()
	require.NoError(t, store.SetMarker(db, models.MarkerJKWSetupRequired))

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: project}, Input{
		ToolName:  "Write",
		ToolInput: rawToolInput(t, map[string]any{"file_path": ".claude/jkw-session.local.md"}),
	})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseClearsJKWSetupMarkerOnceSessionFileExists(t *testing.T) {
	db := newTestDB(t)
	project := t.TempDir()
	require.NoError(t, store.SetMarker(db, models.MarkerJKWSetupRequired))
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".claude", "jkw-session.local.md"), []byte("# notes"), 0o600))

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: project}, Input{
		ToolName:  "Write",
		ToolInput: rawToolInput(t, map[string]any{"file_path": "src/main.rs"}),
	})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)

	has, err := store.HasMarker(db, models.MarkerJKWSetupRequired)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPreToolUseBlocksEveryToolInProblemMode(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, store.SetMarker(db, models.MarkerProblemMode))

	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{ToolName: "Read"})
	assert.Equal(t, PermissionBlock, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseBlocksNoVerifyWithoutAcknowledgment(t *testing.T) {
	db := newTestDB(t)
	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{
		ToolName:  "Bash",
		ToolInput: rawToolInput(t, map[string]any{"command": "git commit --no-verify -m x"}),
	})
	assert.Equal(t, PermissionBlock, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseAllowsNoVerifyWithAcknowledgment(t *testing.T) {
	db := newTestDB(t)
	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{
		ToolName: "Bash",
		ToolInput: rawToolInput(t, map[string]any{
			"command": "git commit --no-verify -m x # I promise the user has said I can use --no-verify here",
		}),
	})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseBlocksWriteToProjectConfig(t *testing.T) {
	db := newTestDB(t)
	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{
		ToolName:  "Edit",
		ToolInput: rawToolInput(t, map[string]any{"file_path": ".claude/reliability-config.yaml"}),
	})
	assert.Equal(t, PermissionBlock, out.HookSpecificOutput.PermissionDecision)
}

func TestPreToolUseSetsNeedsValidationForModifyingTool(t *testing.T) {
	db := newTestDB(t)
	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{
		ToolName:  "Write",
		ToolInput: rawToolInput(t, map[string]any{"file_path": "src/lib.rs"}),
	})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)

	has, err := store.HasMarker(db, models.MarkerNeedsValidation)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPreToolUseDoesNotSetNeedsValidationForReadOnlyTool(t *testing.T) {
	db := newTestDB(t)
	PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{ToolName: "Read"})

	has, err := store.HasMarker(db, models.MarkerNeedsValidation)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPreToolUseDefaultAllow(t *testing.T) {
	db := newTestDB(t)
	out := PreToolUse(PreToolDeps{DB: db, ProjectPath: t.TempDir()}, Input{ToolName: "Bash",
		ToolInput: rawToolInput(t, map[string]any{"command": "echo hi"})})
	assert.Equal(t, PermissionAllow, out.HookSpecificOutput.PermissionDecision)
}
