package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/taskmate/internal/ui"
	"github.com/tgienger/taskmate/internal/ui/views"
)

// runTUIFunc is a function variable for launching the TUI, allowing it to be mocked in tests.
var runTUIFunc = runTUI

// runTUI runs the program alongside the reminder dispatcher and store
// watcher. Quitting the program stops both.
func runTUI(cmd *cobra.Command, s *session) error {
	c := s.container

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	a := ui.NewApp(ctx, ui.Options{
		Service: c.Service,
		Themes:  c,
		Clock:   c.Clock,
		Theme:   c.Theme(),
		Recent:  c.Config.UI.Recent,
		Settings: views.SettingsInfo{
			DBPath:           c.DB.Path(),
			RemindersEnabled: c.Config.Reminders.Enabled,
			Lead:             c.Config.Reminders.Lead,
		},
		Log: c.Log,
	})
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))

	g.Go(func() error {
		return c.RunBackground(ctx, a.Notifier())
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	return g.Wait()
}
