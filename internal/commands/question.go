package commands

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/output"
	"github.com/dotcommander/reliability/internal/store"
)

// newQuestionCmd creates the blocking/informational question command group.
func newQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Manage blocking and informational questions linkable to tasks",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newQuestionCreateCmd())
	cmd.AddCommand(newQuestionGetCmd())
	cmd.AddCommand(newQuestionAnswerCmd())
	cmd.AddCommand(newQuestionUnansweredCmd())
	cmd.AddCommand(newQuestionSearchCmd())
	cmd.AddCommand(newQuestionBlockingTaskCmd())
	return cmd
}

func newQuestionCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Record a question",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			if text == "" {
				return cmdErr(errors.New("--text is required"))
			}

			agentName := resolveAgentName(cmd)
			if sub := buildSubAgentClient(agentName); sub != nil {
				verdict := sub.EvaluateCreateQuestion(cmd.Context(), text)
				if !verdict.Accept {
					return cmdErr(errors.New(verdict.Reason))
				}
			}

			var q *models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				created, err := store.CreateQuestion(db, text)
				if err != nil {
					return err
				}
				q = created
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(q)
		},
	}
	cmd.Flags().String("text", "", "Question text (required)")
	return cmd
}

func newQuestionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Fetch a question by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q *models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.GetQuestion(db, args[0])
				if err != nil {
					return err
				}
				q = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(q)
		},
	}
}

func newQuestionAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "answer <id> <answer>",
		Short:         "Record an answer to a question",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q *models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.AnswerQuestion(db, args[0], args[1])
				if err != nil {
					return err
				}
				q = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(q)
		},
	}
}

func newQuestionUnansweredCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "unanswered",
		Short:         "List questions with no recorded answer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []*models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.UnansweredQuestions(db)
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "questions": items})
		},
	}
}

func newQuestionSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "search <phrase>",
		Short:         "Full-text search over question text",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = defaultListLimit
			}
			var items []*models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.SearchQuestions(db, args[0], limit)
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "questions": items})
		},
	}
	cmd.Flags().Int("limit", defaultListLimit, "Maximum rows returned")
	return cmd
}

func newQuestionBlockingTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "blocking-task <task-id>",
		Short:         "List questions that block a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []*models.Question
			if err := withDB(resolveProjectPath(cmd), func(db *sql.DB) error {
				got, err := store.QuestionsBlockingTask(db, args[0])
				if err != nil {
					return err
				}
				items = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]any{"count": len(items), "questions": items})
		},
	}
}
