package commands

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// resolveRequestID returns the --request-id flag or RELIABILITY_REQUEST_ID
// env var, generating a fresh one if neither is set. Unlike the idempotent
// event log this harness's teacher tracks, task-graph mutations here are not
// deduplicated by request ID — the value exists purely so request-scoped
// log lines can be correlated across a hook invocation's stderr output.
func resolveRequestID(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("request-id"); err == nil && v != "" {
		return v
	}
	if v := os.Getenv("RELIABILITY_REQUEST_ID"); v != "" {
		return v
	}
	return uuid.NewString()
}
