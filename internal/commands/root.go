package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "relihook",
		Short:         "Reliability-enforcement harness for an autonomous coding agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}
			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				setDBPathOverride(dbPath)
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("request_id", resolveRequestID(cmd)))
			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override database path")
	root.PersistentFlags().StringP("agent", "a", "", "Sub-agent CLI to delegate to: claude or opencode (default: $RELIABILITY_AGENT, else claude)")
	root.PersistentFlags().String("actor", "", "Deprecated: use --agent")
	_ = root.PersistentFlags().MarkDeprecated("actor", "use --agent")
	root.PersistentFlags().String("request-id", "", "Correlation id for this invocation's log lines (default: $RELIABILITY_REQUEST_ID, else generated)")
	root.PersistentFlags().String("project-path", "", "Override the project root (default: current working directory)")
	_ = root.PersistentFlags().MarkHidden("project-path")
	root.Flags().BoolP("version", "v", false, "version for relihook")

	root.AddCommand(newHookCmd())
	root.AddCommand(newWorkCmd())
	root.AddCommand(newHowToCmd())
	root.AddCommand(newQuestionCmd())
	root.AddCommand(newAuditLogCmd())
	root.AddCommand(newEmergencyStopCmd())
	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newEnsureConfigCmd())
	root.AddCommand(newEnsureGitignoreCmd())
	root.AddCommand(newIntroCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newUpgradeCmd(version))

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Default().Error("command failed", "error", err.Error())
		}
	}
	return err
}
