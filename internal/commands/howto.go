package commands

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/output"
	"github.com/dotcommander/reliability/internal/store"
)

// newHowToCmd creates the reusable-guidance command group.
func newHowToCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "howto",
		Short: "Manage reusable guidance documents linkable to tasks",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newHowToCreateCmd())
	cmd.AddCommand(newHowToGetCmd())
	cmd.AddCommand(newHowToListCmd())
	cmd.AddCommand(newHowToDeleteCmd())
	cmd.AddCommand(newHowToSearchCmd())
	cmd.AddCommand(newHowToForTaskCmd())
	return cmd
}

func newHowToCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a how-to",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			instructions, _ := cmd.Flags().GetString("instructions")
			if title == "" || instructions == "" {
				return cmdErr(errors.New("--title and --instructions are required"))
			}

			var h *models.HowTo
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				created, err := store.CreateHowTo(db, title, instructions)
				if err != nil {
					return err
				}
				h = created
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(h)
		},
	}
	cmd.Flags().String("title", "", "How-to title (required)")
	cmd.Flags().String("instructions", "", "How-to body (required)")
	return cmd
}

func newHowToGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Fetch a how-to by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var h *models.HowTo
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.GetHowTo(db, args[0])
				if err != nil {
					return err
				}
				h = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(h)
		},
	}
}

func newHowToListCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all how-tos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []*models.HowTo
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.ListHowTos(db)
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "howtos": items})
		},
	}
}

func newHowToDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a how-to",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				return store.DeleteHowTo(db, args[0])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"deleted": args[0]})
		},
	}
}

func newHowToSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "search <phrase>",
		Short:         "Full-text search over how-to titles and instructions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = defaultListLimit
			}
			var items []*models.HowTo
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.SearchHowTos(db, args[0], limit)
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "howtos": items})
		},
	}
	cmd.Flags().Int("limit", defaultListLimit, "Maximum rows returned")
	return cmd
}

func newHowToForTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "for-task <task-id>",
		Short:         "List how-tos linked as guidance for a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []*models.HowTo
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.GuidanceForTask(db, args[0])
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "howtos": items})
		},
	}
}
