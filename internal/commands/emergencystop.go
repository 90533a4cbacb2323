package commands

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/output"
	"github.com/dotcommander/reliability/internal/store"
)

// newEmergencyStopCmd creates the emergency-stop verb: the sub-agent
// adjudicates every request before the marker is set, since an emergency
// stop pauses the whole harness and a spurious one is expensive to notice.
func newEmergencyStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "emergency-stop",
		Short:         "Request an emergency stop, pending sub-agent evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			if reason == "" {
				return cmdErr(errors.New("--reason is required"))
			}

			agentName := resolveAgentName(cmd)
			sub := buildSubAgentClient(agentName)
			if sub == nil {
				return cmdErr(errors.New("emergency-stop requires a reachable sub-agent CLI to adjudicate the request"))
			}

			verdict := sub.EvaluateEmergencyStop(cmd.Context(), reason)
			if !verdict.Accept {
				return cmdErr(errors.New(verdict.Instructions))
			}

			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				return store.SetMarker(db, models.MarkerEmergencyStop)
			}); err != nil {
				return err
			}

			return output.PrintSuccess(map[string]string{
				"message": "emergency stop accepted; the harness will block further work until the marker is cleared",
			})
		},
	}
	cmd.Flags().String("reason", "", "Why an emergency stop is being requested (required)")
	return cmd
}
