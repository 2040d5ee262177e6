package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskmate/internal/config"
	"github.com/tgienger/taskmate/internal/mcpserver"
	"github.com/tgienger/taskmate/internal/reminder"
)

func newRemindCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Deliver reminders in the foreground",
		Long: `Poll for due reminders and print each one until interrupted.

Use this when the TUI isn't running, e.g. from a terminal multiplexer pane
or a user service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := s.container
			if !c.Config.Reminders.Enabled {
				return fmt.Errorf("reminders are disabled (reminders.enabled)")
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching for reminders every %s\n", c.Config.Reminders.PollInterval)
			return c.RunBackground(cmd.Context(), reminder.WriterNotifier{W: cmd.OutOrStdout()})
		},
	}
}

func newMCPCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := s.container
			return mcpserver.NewServer(c.Service, s.build.Version, c.Log).ServeStdio()
		},
	}
}

func newThemeCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the TUI theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{config.ThemeLight, config.ThemeDark, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := s.container
			current := c.Theme()
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), current)
				return nil
			}

			next := args[0]
			if next == "toggle" {
				next = config.ThemeLight
				if current == config.ThemeLight {
					next = config.ThemeDark
				}
			}
			if err := c.SetTheme(next); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", next)
			return nil
		},
	}
}
