package hooks

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/dotcommander/reliability/internal/templates"
)

// disableWarningHarvestEnv disables the Bash-warning harvester when set to
// a non-empty value (Environment variables).
const disableWarningHarvestEnv = "CLAUDE_RELIABILITY_DISABLE_HOOK"

const maxWarningTextLen = 2000

const maxCommandTitleLen = 60

// PostToolDeps are the external collaborators the harvester needs.
type PostToolDeps struct {
	DB *sql.DB
}

// PostToolUse runs the post-tool-use harvester. Returns an error
// only for conditions the host should surface to the agent (a missing
// ExitPlanMode artifact); warning-harvest failures are logged, not
// propagated, since a hook must never jam the agent over a best-effort
// bookkeeping task.
func PostToolUse(deps PostToolDeps, in Input) error {
	switch in.ToolName {
	case "Bash":
		harvestBashWarnings(deps, in)
		return nil
	case "ExitPlanMode":
		return validateExitPlanMode(in)
	default:
		return nil
	}
}

func harvestBashWarnings(deps PostToolDeps, in Input) {
	if os.Getenv(disableWarningHarvestEnv) != "" {
		return
	}

	stderr := extractStderr(in.ToolResponse)
	if stderr == "" {
		return
	}

	warningLines := extractWarningLines(stderr)
	if len(warningLines) == 0 {
		return
	}

	fields := in.decodeToolInput()
	command := fields.Command
	if command == "" {
		command = "<unknown command>"
	}

	warningText := strings.Join(warningLines, "\n")
	if len(warningText) > maxWarningTextLen {
		warningText = warningText[:maxWarningTextLen] + "\n... (truncated)"
	}

	title := templates.Render("messages/warnings_task_title", map[string]any{
		"command": truncateCommand(command),
	})
	description := templates.Render("messages/warnings_task_body", map[string]any{
		"command":  command,
		"warnings": warningText,
	})

	_, _ = store.CreateTask(deps.DB, title, description, models.PriorityMedium)
}

func truncateCommand(command string) string {
	if len(command) > maxCommandTitleLen {
		return command[:maxCommandTitleLen] + "..."
	}
	return command
}

// extractStderr pulls stderr text out of tool_response, which may arrive as
// a structured object or a bare string.
func extractStderr(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var fields toolResponseFields
	if err := json.Unmarshal(raw, &fields); err == nil && fields.Stderr != "" {
		return fields.Stderr
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	return ""
}

func extractWarningLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), "warning") {
			out = append(out, line)
		}
	}
	return out
}

func validateExitPlanMode(in Input) error {
	fields := in.decodeToolResponse()
	if fields.FilePath == "" {
		return fmt.Errorf("ExitPlanMode response did not include a plan file path")
	}
	if _, err := os.Stat(fields.FilePath); err != nil {
		return fmt.Errorf("ExitPlanMode plan file %q is not reachable: %w", fields.FilePath, err)
	}
	return nil
}
