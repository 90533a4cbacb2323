package hooks

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/dotcommander/reliability/internal/templates"
)

const expectedBinaryRelDir = ".claude-reliability/bin"

// UserPromptDeps are the external collaborators the interceptor needs.
type UserPromptDeps struct {
	DB          *sql.DB
	ProjectPath string
}

// UserPromptSubmit runs the user-prompt-submit interceptor: it clears
// markers that only make sense while waiting on the assistant's next turn,
// reminds the agent to re-read its session notes after a compaction, and
// flags a stale binary location.
func UserPromptSubmit(deps UserPromptDeps, in Input) UserPromptOutput {
	_ = store.ClearMarker(deps.DB, models.MarkerMustReflect)
	_ = store.ClearMarker(deps.DB, models.MarkerNeedsValidation)

	var messages []string

	if in.IsCompactSummary {
		messages = append(messages, templates.Render("messages/post_compaction_reminder", map[string]any{
			"session_notes_path": jkwSessionNotesRelPath,
		}))
	}

	if warning, stale := checkBinaryLocation(deps.ProjectPath); stale {
		messages = append(messages, warning)
	}

	return UserPromptOutput{SystemMessage: strings.Join(messages, "\n\n")}
}

// checkBinaryLocation warns when the running executable isn't the one
// installed at the project's expected location, which usually means a
// stale cached copy is being invoked instead of a freshly reinstalled hook.
func checkBinaryLocation(projectPath string) (string, bool) {
	if projectPath == "" {
		return "", false
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", false
	}
	expectedDir := filepath.Join(projectPath, expectedBinaryRelDir)
	if _, err := os.Stat(expectedDir); err != nil {
		return "", false
	}
	if strings.HasPrefix(filepath.Clean(exePath), filepath.Clean(expectedDir)+string(os.PathSeparator)) {
		return "", false
	}
	return templates.Render("messages/binary_location_warning", nil), true
}
