package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// draftFlags are the editable task fields shared by add and edit.
type draftFlags struct {
	Title       string
	Description string
	Priority    string
	Category    string
	Due         string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&f.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Priority: High, Medium or Low")
	cmd.Flags().StringVar(&f.Category, "category", "", "Category: Work, Personal, School or Other")
	cmd.Flags().StringVar(&f.Due, "due", "", `Due date ("`+task.DueLayout+`" local time, or RFC 3339)`)
}

// apply copies the flags the user set onto d. Unknown enum values are kept
// as typed so validation reports them against the right field.
func (f *draftFlags) apply(cmd *cobra.Command, d *models.Draft) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		d.Title = f.Title
	}
	if changed("description") {
		d.Description = f.Description
	}
	if changed("priority") {
		p, ok := models.ParsePriority(f.Priority)
		if !ok {
			p = models.Priority(f.Priority)
		}
		d.Priority = p
	}
	if changed("category") {
		c, ok := models.ParseCategory(f.Category)
		if !ok {
			c = models.Category(f.Category)
		}
		d.Category = c
	}
	if changed("due") {
		due, err := task.ParseDue(f.Due, time.Local)
		if err != nil {
			return err
		}
		d.DueDate = due
	}
	return nil
}

// resolveID accepts a full task id or an unambiguous prefix of one
func resolveID(ctx context.Context, svc *task.Service, arg string) (string, error) {
	tasks, err := svc.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range tasks {
		if t.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w", arg, task.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d tasks)", arg, len(matches))
	}
}

func newListCommand(s *session) *cobra.Command {
	var opts struct {
		Priority  string
		Category  string
		Completed bool
		Search    string
		Recent    int
		Output    string
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks in the order they were added.

Open tasks are shown unless --completed is given. --recent instead shows
the most recently changed tasks first.

Examples:
  taskmate list --priority high
  taskmate list --category school --search essay
  taskmate list --completed -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := task.Filter{
				Priority:  task.All,
				Category:  task.All,
				Completed: opts.Completed,
				Search:    opts.Search,
			}
			if opts.Priority != "" {
				p, ok := models.ParsePriority(opts.Priority)
				if !ok {
					return fmt.Errorf("unknown priority: %s", opts.Priority)
				}
				f.Priority = string(p)
			}
			if opts.Category != "" {
				c, ok := models.ParseCategory(opts.Category)
				if !ok {
					return fmt.Errorf("unknown category: %s", opts.Category)
				}
				f.Category = string(c)
			}

			all, err := s.container.Service.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			tasks := task.Apply(all, f)
			if cmd.Flags().Changed("recent") {
				tasks = task.Recent(tasks, opts.Recent)
			}

			return writeTasks(cmd.OutOrStdout(), opts.Output, tasks, s.container.Clock.Now())
		},
	}

	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Only tasks with this priority")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Only tasks in this category")
	cmd.Flags().BoolVar(&opts.Completed, "completed", false, "Show completed tasks instead of open ones")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Case-insensitive text in title or description")
	cmd.Flags().IntVar(&opts.Recent, "recent", 3, "Show the N most recently changed tasks")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", formatTable, "Output format: table, json, yaml or toml")

	return cmd
}

func newAddCommand(s *session) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new task",
		Long: `Create a new task. A reminder is scheduled before the due date.

Examples:
  taskmate add --title "Essay draft" --priority high --category school --due "2026-05-04 14:30"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d models.Draft
			if err := flags.apply(cmd, &d); err != nil {
				return err
			}
			t, err := s.container.Service.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newEditCommand(s *session) *cobra.Command {
	var (
		flags     draftFlags
		completed bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long: `Edit a task. Only the fields given as flags change.

Examples:
  taskmate edit 3f2a --due "2026-05-05 09:00"
  taskmate edit 3f2a --completed=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := s.container.Service
			id, err := resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			current, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			d := models.DraftFrom(*current)
			if err := flags.apply(cmd, &d); err != nil {
				return err
			}
			done := current.Completed
			if cmd.Flags().Changed("completed") {
				done = completed
			}

			if _, err := svc.Update(cmd.Context(), id, d, done); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", id)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark the task completed (or not)")

	return cmd
}

func newDoneCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := s.container.Service
			id, err := resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			t, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if _, err := svc.Complete(cmd.Context(), *t); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", id)
			return nil
		},
	}
}

// newConfirmer builds the interactive confirmation for rm, allowing it to
// be replaced in tests.
var newConfirmer = readlineConfirmer

// readlineConfirmer asks a y/N question on the command's terminal.
func readlineConfirmer(cmd *cobra.Command) task.Confirmer {
	return task.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt + " [y/N] ",
			Stdin:           io.NopCloser(cmd.InOrStdin()),
			Stdout:          cmd.OutOrStdout(),
			Stderr:          cmd.ErrOrStderr(),
			InterruptPrompt: "^C",
		})
		if err != nil {
			return false, err
		}
		defer rl.Close()

		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

func newRmCommand(s *session) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long: `Delete a task after confirmation. Its pending reminder is cancelled.

Examples:
  taskmate rm 3f2a
  taskmate rm 3f2a --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := s.container.Service
			id, err := resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}

			confirm := task.AlwaysConfirm
			if !yes {
				confirm = newConfirmer(cmd)
			}

			deleted, err := svc.Delete(cmd.Context(), id, confirm)
			if err != nil {
				return err
			}
			if !deleted {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not deleted")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}
