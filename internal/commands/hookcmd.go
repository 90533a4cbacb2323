package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/beads"
	"github.com/dotcommander/reliability/internal/hooks"
	"github.com/dotcommander/reliability/internal/reminders"
)

// maxHookStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom against unbounded allocation from a misbehaving
// host.
const maxHookStdinBytes = 1 << 20

// newHookCmd creates the hidden hook-handler parent command. These verbs are
// invoked by the host agent's lifecycle hook configuration, not typed by a
// human, so every subcommand is hidden from help output.
func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hook",
		Short:  "Lifecycle hook handlers invoked by the host agent",
		Args:   cobra.NoArgs,
		Hidden: true,
	}

	cmd.AddCommand(newHookPreToolUseCmd())
	cmd.AddCommand(newHookPostToolUseCmd())
	cmd.AddCommand(newHookStopCmd())
	cmd.AddCommand(newHookUserPromptSubmitCmd())
	return cmd
}

func readHookInput() hooks.Input {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxHookStdinBytes))
	if err != nil {
		return hooks.Input{}
	}
	var in hooks.Input
	_ = json.Unmarshal(data, &in)
	return in
}

func newHookPreToolUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "pre-tool-use",
 Short: "PreToolUse hook — the gatekeeper ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := readHookInput()
			projectPath := resolveProjectPath(cmd)

			out := hooks.PreToolOutput{HookSpecificOutput: hooks.PreToolHookSpecific{
				PermissionDecision: hooks.PermissionAllow,
			}}
			_ = withDB(projectPath, func(db *sql.DB) error {
				engine := reminders.New(app.RemindersPath(projectPath))
				out = hooks.PreToolUse(hooks.PreToolDeps{
					DB:          db,
					ProjectPath: projectPath,
					Reminders:   engine,
				}, in)
				return nil
			})

			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
}

func newHookPostToolUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "post-tool-use",
 Short: "PostToolUse hook — the harvester ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := readHookInput()
			projectPath := resolveProjectPath(cmd)

			return withDB(projectPath, func(db *sql.DB) error {
				return hooks.PostToolUse(hooks.PostToolDeps{DB: db}, in)
			})
		},
	}
}

func newHookStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "stop",
 Short: "Stop hook — the stop decision engine ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := readHookInput()
			projectPath := resolveProjectPath(cmd)
			agentName := resolveAgentName(cmd)
			settings := loadProjectSettings(projectPath)

			verdict := hooks.StopVerdict{Allow: true}
			_ = withDB(projectPath, func(db *sql.DB) error {
				deps := hooks.StopDeps{
					DB:       db,
					Git:      gitProbeFor(projectPath),
					SubAgent: buildSubAgentClient(agentName),
					Settings: settings,
				}
				// Leave deps.Beads at its zero value (a true nil interface)
				// when beads isn't installed, rather than assigning a typed
				// nil *beads.Client — that would wrap a nil pointer in a
				// non-nil interface and defeat stop.go's "deps.Beads != nil" checks.
				if settings.BeadsInstalled {
					deps.Beads = beads.New(projectPath)
				}
				verdict = hooks.Stop(context.Background(), deps, in)
				return nil
			})

			writeStopVerdict(verdict)
			return nil
		},
	}
}

// writeStopVerdict renders the verdict to the documented stdout/stderr +
// exit-code contract and, on a block verdict, terminates the process
// directly: cobra's error path only ever yields exit 1, but the stop
// contract requires exit 2 specifically so the host can tell "block" apart
// from "the CLI itself errored".
func writeStopVerdict(verdict hooks.StopVerdict) {
	if verdict.Allow {
		if len(verdict.Messages) > 0 {
			_ = json.NewEncoder(os.Stdout).Encode(hooks.StopSystemMessage{
				SystemMessage: strings.Join(verdict.Messages, "\n\n"),
			})
		}
		return
	}

	payload := verdict.InjectResponse
	if payload == "" {
		payload = strings.Join(verdict.Messages, "\n\n")
	}
	fmt.Fprintln(os.Stderr, payload)
	os.Exit(verdict.ExitCode())
}

func newHookUserPromptSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "user-prompt-submit",
 Short: "UserPromptSubmit hook — the interceptor ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := readHookInput()
			projectPath := resolveProjectPath(cmd)

			var out hooks.UserPromptOutput
			_ = withDB(projectPath, func(db *sql.DB) error {
				out = hooks.UserPromptSubmit(hooks.UserPromptDeps{
					DB:          db,
					ProjectPath: projectPath,
				}, in)
				return nil
			})

			if out.SystemMessage == "" {
				return nil
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
}
