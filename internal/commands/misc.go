package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dustin/go-humanize"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/output"
)

// newVersionCmd prints the build version to stderr, leaving stdout free
// for a future JSON-piped caller.
func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the build version",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stderr, version)
			return nil
		},
	}
}

func newEnsureConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "ensure-config",
		Short:         "Create the global config directory and default config.yaml if missing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				return cmdErr(err)
			}
			dir, _ := app.ConfigDir()
			fmt.Fprintf(os.Stderr, "config directory ready at %s\n", dir)
			return nil
		},
	}
}

const gitignoreEntry = ".claude-reliability/\n"

// newEnsureGitignoreCmd appends the harness's project-local state directory
// to .gitignore if it isn't already covered. Idempotent: re-running is a
// no-op once the entry is present.
func newEnsureGitignoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "ensure-gitignore",
		Short:         "Add the harness's project-local directory to .gitignore",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := resolveProjectPath(cmd)
			path := filepath.Join(projectPath, ".gitignore")

			existing, err := os.ReadFile(path) //nolint:gosec // G304: path built from the resolved project root
			if err != nil && !os.IsNotExist(err) {
				return cmdErr(err)
			}
			if strings.Contains(string(existing), strings.TrimSpace(gitignoreEntry)) {
				fmt.Fprintln(os.Stderr, ".gitignore already covers .claude-reliability/")
				return nil
			}

			content := string(existing)
			if content != "" && !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			content += gitignoreEntry

			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				return cmdErr(err)
			}
			fmt.Fprintln(os.Stderr, "added .claude-reliability/ to .gitignore")
			return nil
		},
	}
}

func newIntroCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "intro",
		Short:         "Print a short orientation message for first-time setup",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stderr, strings.TrimSpace(`
This harness inspects git, transcript, and task-graph state at the host
agent's lifecycle hook points and returns allow/block verdicts. Run
'relihook ensure-config' once per machine and 'relihook ensure-gitignore'
once per project, then wire 'relihook hook <verb>' into the host's hook
configuration.
`))
			return nil
		},
	}
}

// newDoctorCmd reports the harness's resolved environment: config paths,
// whether git/beads/a sub-agent CLI are reachable, and the project
// database's on-disk size.
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose the harness's environment for the current project",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := resolveProjectPath(cmd)
			agentName := resolveAgentName(cmd)

			report := map[string]any{
				"project_path": projectPath,
			}

			if dbPath, err := app.GetDBPath(projectPath); err == nil {
				report["db_path"] = dbPath
				if info, statErr := os.Stat(dbPath); statErr == nil {
					report["db_size"] = humanize.Bytes(uint64(info.Size())) //nolint:gosec // G115: file sizes never approach int64 overflow
				}
			}

			git := gitProbeFor(projectPath)
			report["git_repo"] = git.IsRepo()

			_, bdErr := exec.LookPath("bd")
			report["beads_on_path"] = bdErr == nil

			sub := buildSubAgentClient(agentName)
			report["sub_agent_available"] = sub != nil

			settings := loadProjectSettings(projectPath)
			report["project_settings"] = settings

			return output.PrintSuccess(report)
		},
	}
}

const (
	upgradeModulePath     = "github.com/dotcommander/reliability/cmd/relihook"
	upgradeInstallTimeout = 5 * time.Minute
	upgradeVersionTimeout = 5 * time.Second
)

// newUpgradeCmd reinstalls relihook at the latest published version via
// `go install`.
func newUpgradeCmd(currentVersion string) *cobra.Command {
	return &cobra.Command{
		Use:           "upgrade",
		Short:         "Reinstall relihook at the latest published version",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := exec.LookPath("go"); err != nil {
				return cmdErr(fmt.Errorf("go not found in PATH: install go and retry"))
			}

			ctx, cancel := context.WithTimeout(context.Background(), upgradeInstallTimeout)
			defer cancel()

			installCmd := exec.CommandContext(ctx, "go", "install", upgradeModulePath+"@latest")
			out, err := installCmd.CombinedOutput()
			if err != nil {
				return cmdErr(fmt.Errorf("go install failed: %w: %s", err, strings.TrimSpace(string(out))))
			}

			newVersion := resolveInstalledVersion()
			return output.PrintSuccess(map[string]string{
				"previous_version": currentVersion,
				"installed_version": newVersion,
			})
		},
	}
}

func resolveInstalledVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), upgradeVersionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "relihook", "version").CombinedOutput()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
