package commands

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/output"
	"github.com/dotcommander/reliability/internal/store"
)

// defaultListLimit caps list/search results unless overridden.
const defaultListLimit = 50

// newWorkCmd creates the task-graph command group (Task/Work Surface).
func newWorkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage the task graph: create, update, query, and pick work",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newWorkCreateCmd())
	cmd.AddCommand(newWorkGetCmd())
	cmd.AddCommand(newWorkListCmd())
	cmd.AddCommand(newWorkUpdateCmd())
	cmd.AddCommand(newWorkDeleteCmd())
	cmd.AddCommand(newWorkNextCmd())
	cmd.AddCommand(newWorkSearchCmd())
	cmd.AddCommand(newWorkAddDepCmd())
	cmd.AddCommand(newWorkRemoveDepCmd())
	cmd.AddCommand(newWorkNoteCmd())
	cmd.AddCommand(newWorkNotesCmd())
	cmd.AddCommand(newWorkLinkHowToCmd())
	cmd.AddCommand(newWorkLinkQuestionCmd())
	return cmd
}

func newWorkCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a new task",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("desc")
			priority, _ := cmd.Flags().GetInt("priority")
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var task *models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.CreateTask(db, title, desc, priority)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(task)
		},
	}
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("desc", "", "Task description")
	cmd.Flags().Int("priority", models.PriorityMedium, "Priority 0 (critical) .. 4 (backlog)")
	return cmd
}

func newWorkGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Fetch a task by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var task *models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.GetTask(db, args[0])
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(task)
		},
	}
}

func newWorkListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List tasks, optionally filtered by status",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = defaultListLimit
			}

			var tasks []*models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.ListTasks(db, store.TaskFilter{Status: models.TaskStatus(status)}, limit)
				if err != nil {
					return err
				}
				tasks = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count int            `json:"count"`
				Tasks []*models.Task `json:"tasks"`
			}
			return output.PrintSuccess(resp{Count: len(tasks), Tasks: tasks})
		},
	}
	cmd.Flags().String("status", "", "Filter by status (open, complete, abandoned, stuck, blocked)")
	cmd.Flags().Int("limit", defaultListLimit, "Maximum rows returned")
	return cmd
}

func newWorkUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Apply a partial update to a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			update := store.TaskUpdate{}
			if v, _ := cmd.Flags().GetString("title"); cmd.Flags().Changed("title") {
				update.Title = &v
			}
			if v, _ := cmd.Flags().GetString("desc"); cmd.Flags().Changed("desc") {
				update.Description = &v
			}
			if v, _ := cmd.Flags().GetInt("priority"); cmd.Flags().Changed("priority") {
				update.Priority = &v
			}
			if v, _ := cmd.Flags().GetString("status"); cmd.Flags().Changed("status") {
				status := models.TaskStatus(v)
				update.Status = &status
			}
			if v, _ := cmd.Flags().GetBool("in-progress"); cmd.Flags().Changed("in-progress") {
				update.InProgress = &v
			}
			if v, _ := cmd.Flags().GetBool("requested"); cmd.Flags().Changed("requested") {
				update.Requested = &v
			}

			var task *models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.UpdateTask(db, args[0], update)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(task)
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("desc", "", "New description")
	cmd.Flags().Int("priority", 0, "New priority 0-4")
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().Bool("in-progress", false, "Mark in-progress")
	cmd.Flags().Bool("requested", false, "Mark requested")
	return cmd
}

func newWorkDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a task and cascade its dependencies, notes, and links",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				return store.DeleteTask(db, args[0])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"deleted": args[0]})
		},
	}
}

// newWorkNextCmd picks the next task to work via the store's weighted
// random selection among ready tasks ("next picks via pick_task").
func newWorkNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "next",
		Short:         "Pick the next ready task to work",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var task *models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.PickTask(db)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(task)
		},
	}
}

func newWorkSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "search <phrase>",
		Short:         "Full-text search over task titles and descriptions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = defaultListLimit
			}

			var tasks []*models.Task
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				t, err := store.SearchTasks(db, args[0], limit)
				if err != nil {
					return err
				}
				tasks = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count int            `json:"count"`
				Tasks []*models.Task `json:"tasks"`
			}
			return output.PrintSuccess(resp{Count: len(tasks), Tasks: tasks})
		},
	}
	cmd.Flags().Int("limit", defaultListLimit, "Maximum rows returned")
	return cmd
}

func newWorkAddDepCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "add-dep <task-id> <depends-on-id>",
		Short:         "Add a dependency edge, blocking task-id on depends-on-id",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				return store.AddDependency(db, args[0], args[1])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"task_id": args[0], "depends_on": args[1]})
		},
	}
}

func newWorkRemoveDepCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "remove-dep <task-id> <depends-on-id>",
		Short:         "Remove a dependency edge",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				return store.RemoveDependency(db, args[0], args[1])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"task_id": args[0], "removed_dep": args[1]})
		},
	}
}

func newWorkNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "note <task-id> <content>",
		Short:         "Append a note to a task",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var note *models.Note
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				n, err := store.AddNote(db, args[0], args[1])
				if err != nil {
					return err
				}
				note = n
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(note)
		},
	}
}

func newWorkNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "notes <task-id>",
		Short:         "List a task's notes, oldest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var notes []*models.Note
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				n, err := store.GetNotes(db, args[0])
				if err != nil {
					return err
				}
				notes = n
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"notes": notes})
		},
	}
}

func newWorkLinkHowToCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "link-howto <task-id> <howto-id>",
		Short:         "Link (or unlink with --remove) a how-to as guidance for a task",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove")
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				if remove {
					return store.UnlinkGuidance(db, args[0], args[1])
				}
				return store.LinkGuidance(db, args[0], args[1])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"task_id": args[0], "howto_id": args[1]})
		},
	}
	cmd.Flags().Bool("remove", false, "Unlink instead of link")
	return cmd
}

func newWorkLinkQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "link-question <task-id> <question-id>",
		Short:         "Link (or unlink with --remove) a blocking question to a task",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove")
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				if remove {
					return store.UnlinkBlockingQuestion(db, args[0], args[1])
				}
				return store.LinkBlockingQuestion(db, args[0], args[1])
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"task_id": args[0], "question_id": args[1]})
		},
	}
	cmd.Flags().Bool("remove", false, "Unlink instead of link")
	return cmd
}
