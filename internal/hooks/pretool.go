package hooks

import (
	"database/sql"
	"os"
	"strings"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/reminders"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/dotcommander/reliability/internal/templates"
)

const jkwSkillName = "just-keep-working"

const jkwSessionNotesRelPath = ".claude/jkw-session.local.md"

const projectConfigRelPath = ".claude/reliability-config.yaml"

// noVerifyAcknowledgment is the exact phrase a Bash command must carry
// alongside "--no-verify" to prove the user authorized bypassing commit
// verification (content checks).
const noVerifyAcknowledgment = "I promise the user has said I can use --no-verify here"

// preToolReadOnlyTools never count as "modifying" for the needs_validation
// marker (stage 7), mirroring the transcript reader's read-only set.
var preToolReadOnlyTools = map[string]bool{
	"Read": true, "Glob": true, "Grep": true, "WebFetch": true, "WebSearch": true, "LS": true,
}

func isJKWSkill(skill string) bool {
	return skill == jkwSkillName || strings.HasSuffix(skill, ":"+jkwSkillName)
}

// isJKWSessionPath reports whether filePath refers to the session notes
// file or anywhere inside the project's .claude directory.
func isJKWSessionPath(filePath string) bool {
	return strings.Contains(filePath, ".claude/") || strings.HasSuffix(filePath, jkwSessionNotesRelPath)
}

func isProjectConfigPath(filePath string) bool {
	return strings.HasSuffix(filePath, projectConfigRelPath)
}

func sessionNotesExist(projectPath string) bool {
	_, err := os.Stat(app.SessionNotesPath(projectPath))
	return err == nil
}

// PreToolDeps are the external collaborators the gatekeeper needs.
type PreToolDeps struct {
	DB          *sql.DB
	ProjectPath string
	Reminders   *reminders.Engine
}

// PreToolUse runs the pre-tool-use gatekeeper state machine.
func PreToolUse(deps PreToolDeps, in Input) PreToolOutput {
	fields := in.decodeToolInput()

	// Stage 1: emergency stop.
	if has, _ := store.HasMarker(deps.DB, models.MarkerEmergencyStop); has {
		return block(templates.Render("messages/emergency_stop_block", nil))
	}

	// Stage 2: JKW invocation.
	if in.ToolName == "Skill" && isJKWSkill(fields.Skill) {
		if !sessionNotesExist(deps.ProjectPath) {
			_ = store.SetMarker(deps.DB, models.MarkerJKWSetupRequired)
		}
		return allow("")
	}

	// Stage 3: JKW setup interlock.
	if setupRequired, _ := store.HasMarker(deps.DB, models.MarkerJKWSetupRequired); setupRequired {
		switch {
		case sessionNotesExist(deps.ProjectPath):
			_ = store.ClearMarker(deps.DB, models.MarkerJKWSetupRequired)
		case (in.ToolName == "Write" || in.ToolName == "Edit") && !isJKWSessionPath(fields.FilePath):
			return block(templates.Render("messages/jkw_setup_required", map[string]any{
				"session_notes_path": jkwSessionNotesRelPath,
			}))
		}
	}

	// Stage 4: problem mode blanket block.
	if inProblemMode, _ := store.HasMarker(deps.DB, models.MarkerProblemMode); inProblemMode {
		return block(templates.Render("messages/problem_mode_block", nil))
	}

	// Stage 5: content checks.
	if in.ToolName == "Bash" && strings.Contains(fields.Command, "--no-verify") &&
		!strings.Contains(fields.Command, noVerifyAcknowledgment) {
		return block(templates.Render("messages/no_verify_block", map[string]any{
			"acknowledgment": noVerifyAcknowledgment,
		}))
	}
	if (in.ToolName == "Write" || in.ToolName == "Edit") && isProjectConfigPath(fields.FilePath) {
		return block(templates.Render("messages/protect_config_write", map[string]any{
			"config_path": projectConfigRelPath,
		}))
	}

	// Stage 6: reminder scan (non-blocking).
	additionalContext := reminderContext(deps, in)

	// Stage 7: modifying tools mark pending validation.
	if !preToolReadOnlyTools[in.ToolName] && in.ToolName != "" {
		_ = store.SetMarker(deps.DB, models.MarkerNeedsValidation)
	}

	// Stage 8: default allow.
	return allow(additionalContext)
}

func reminderContext(deps PreToolDeps, in Input) string {
	if deps.Reminders == nil {
		return ""
	}
	matches := deps.Reminders.Check(string(in.ToolInput))
	if len(matches) == 0 {
		return ""
	}
	return strings.Join(matches, "\n")
}

func allow(additionalContext string) PreToolOutput {
	return PreToolOutput{HookSpecificOutput: PreToolHookSpecific{
		PermissionDecision: PermissionAllow,
		AdditionalContext:  additionalContext,
	}}
}

func block(message string) PreToolOutput {
	return PreToolOutput{HookSpecificOutput: PreToolHookSpecific{
		PermissionDecision: PermissionBlock,
		AdditionalContext:  message,
	}}
}
