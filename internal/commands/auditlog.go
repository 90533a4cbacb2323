package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/dustin/go-humanize"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/output"
	"github.com/dotcommander/reliability/internal/store"
)

// newAuditLogCmd creates the append-only task-mutation audit trail verb.
func newAuditLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "audit-log",
		Short:         "List task-graph mutation history, newest first",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("task-id")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = defaultListLimit
			}

			var entries []*models.AuditEntry
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.GetAuditLog(db, store.AuditFilter{TaskID: taskID, Limit: limit})
				if err != nil {
					return err
				}
				entries = got
				return nil
			}); err != nil {
				return err
			}

			type entryWithAge struct {
				*models.AuditEntry
				Age string `json:"age"`
			}
			withAge := make([]entryWithAge, 0, len(entries))
			for _, e := range entries {
				withAge = append(withAge, entryWithAge{AuditEntry: e, Age: humanize.Time(e.Timestamp)})
			}

			return output.PrintSuccess(map[string]any{"count": len(entries), "entries": withAge})
		},
	}
	cmd.Flags().String("task-id", "", "Scope to a single task")
	cmd.Flags().Int("limit", defaultListLimit, "Maximum rows returned")
	return cmd
}
