package hooks

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawToolResponse(t *testing.T, v map[string]any) []byte {
	t.Helper()
	return rawToolInput(t, v)
}

func rawToolResponseBareString(s string) ([]byte, error) {
	return json.Marshal(s)
}

func listAllTasks(t *testing.T, db *sql.DB) ([]*models.Task, error) {
	t.Helper()
	return store.ListTasks(db, store.TaskFilter{}, 0)
}

func TestPostToolUseHarvestsWarningFromStructuredStderr(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "go build ./..."}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: unused variable x\nbuild ok"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0].Title, "go build ./...")
	assert.Contains(t, tasks[0].Description, "warning: unused variable x")
	assert.NotContains(t, tasks[0].Description, "build ok")
}

func TestPostToolUseHarvestsWarningFromBareStringToolResponse(t *testing.T) {
	db := newTestDB(t)
	raw, err := rawToolResponseBareString("warning: deprecated API\n")
	require.NoError(t, err)

	postErr := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "npm run build"}),
		ToolResponse: raw,
	})
	require.NoError(t, postErr)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestPostToolUseCaseInsensitiveWarningDetection(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "make"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "WARNING: something odd"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestPostToolUseNoOpWhenNoWarningLines(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "echo hi"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "all good"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPostToolUseNoOpWhenStderrEmpty(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "echo hi"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": ""}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPostToolUseNoOpWhenNoToolResponse(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:  "Bash",
		ToolInput: rawToolInput(t, map[string]any{"command": "echo hi"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPostToolUseMissingCommandUsesPlaceholder(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: no command given"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0].Title, "<unknown command>")
}

func TestPostToolUseTruncatesLongCommandInTitleOnly(t *testing.T) {
	db := newTestDB(t)
	longCommand := strings.Repeat("x", 200)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": longCommand}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: long one"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.LessOrEqual(t, len(tasks[0].Title), len("Fix warnings from: ")+maxCommandTitleLen+3)
	assert.Contains(t, tasks[0].Title, "...")
	assert.Contains(t, tasks[0].Description, longCommand)
}

func TestPostToolUseTruncatesLongWarningText(t *testing.T) {
	db := newTestDB(t)
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("warning: line number filler text here\n")
	}
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "make all"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": sb.String()}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0].Description, "... (truncated)")
}

func TestPostToolUseDisabledByEnvVar(t *testing.T) {
	t.Setenv(disableWarningHarvestEnv, "1")
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "make"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: should be ignored"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPostToolUseEmptyEnvVarDoesNotDisable(t *testing.T) {
	t.Setenv(disableWarningHarvestEnv, "")
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Bash",
		ToolInput:    rawToolInput(t, map[string]any{"command": "make"}),
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: should fire"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestPostToolUseIgnoresNonBashNonExitPlanModeTools(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "Write",
		ToolResponse: rawToolResponse(t, map[string]any{"stderr": "warning: irrelevant"}),
	})
	require.NoError(t, err)

	tasks, err := listAllTasks(t, db)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPostToolUseExitPlanModeRequiresPlanPath(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "ExitPlanMode",
		ToolResponse: rawToolResponse(t, map[string]any{}),
	})
	require.Error(t, err)
}

func TestPostToolUseExitPlanModeRequiresReachablePlanPath(t *testing.T) {
	db := newTestDB(t)
	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "ExitPlanMode",
		ToolResponse: rawToolResponse(t, map[string]any{"filePath": filepath.Join(t.TempDir(), "does-not-exist.md")}),
	})
	require.Error(t, err)
}

func TestPostToolUseExitPlanModeAllowsExistingPlanPath(t *testing.T) {
	db := newTestDB(t)
	planPath := filepath.Join(t.TempDir(), "plan.md")
	require.NoError(t, os.WriteFile(planPath, []byte("# plan"), 0o600))

	err := PostToolUse(PostToolDeps{DB: db}, Input{
		ToolName:     "ExitPlanMode",
		ToolResponse: rawToolResponse(t, map[string]any{"filePath": planPath}),
	})
	require.NoError(t, err)
}
