package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/gitprobe"
	"github.com/dotcommander/reliability/internal/subagent"
)

// resolveProjectPath returns the directory the harness should treat as the
// project root: the current working directory, unless overridden for
// testing via --project-path.
func resolveProjectPath(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("project-path"); err == nil && v != "" {
		return v
	}
	cwd, _ := os.Getwd()
	return cwd
}

// resolveAgentName resolves which sub-agent CLI to delegate adjudication
// calls to, checked in order: per-command flag, deprecated alias flag,
// environment variable.
func resolveAgentName(cmd *cobra.Command) string {
	raw := ""
	if v, err := cmd.Flags().GetString("agent"); err == nil && v != "" {
		raw = v
	}
	if raw == "" {
		if v, err := cmd.Flags().GetString("actor"); err == nil && v != "" {
			raw = v
		}
	}
	if raw == "" {
		raw = os.Getenv("RELIABILITY_AGENT")
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// buildSubAgentClient resolves a sub-agent transport for the given agent
// name. Any resolution failure (disabled, CLI not on PATH) yields a nil
// client; every call site treats a nil *subagent.Client the same way it
// treats a resolved client whose transport failed — falling back to the
// documented conservative default per contract.
func buildSubAgentClient(agentName string) *subagent.Client {
	runner, err := subagent.NewCLIRunner(agentName)
	if err != nil {
		return nil
	}
	return subagent.New(runner)
}

// gitProbeFor returns a Probe rooted at projectPath. Every Probe method
// degrades gracefully (empty/false/zero) when projectPath isn't a git
// working tree, so callers never need a nil check.
func gitProbeFor(projectPath string) *gitprobe.Probe {
	return gitprobe.New(projectPath)
}

func loadProjectSettings(projectPath string) app.ProjectSettings {
	settings, err := app.LoadProjectSettings(projectPath)
	if err != nil {
		return app.ProjectSettings{}
	}
	return settings
}
