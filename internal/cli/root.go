// Package cli provides the taskmate command line. With no subcommand it
// starts the TUI.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskmate/internal/app"
	"github.com/tgienger/taskmate/internal/config"
	"github.com/tgienger/taskmate/internal/logging"
)

// BuildInfo is set from ldflags in main.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// session holds the global flags and the container opened from them.
type session struct {
	build      BuildInfo
	configPath string
	dbPath     string
	verbose    bool
	container  *app.Container
}

// open loads configuration and opens the container
func (s *session) open() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	if s.dbPath != "" {
		cfg.Store.Path = s.dbPath
	}

	log, err := logging.New(cfg.Log.File, cfg.Log.Level, s.verbose)
	if err != nil {
		return err
	}

	c, err := app.Open(cfg, log)
	if err != nil {
		_ = log.Sync()
		return err
	}
	s.container = c
	return nil
}

func (s *session) close() error {
	if s.container == nil {
		return nil
	}
	err := s.container.Close()
	s.container = nil
	return err
}

// Execute runs the command line and releases the database however the
// command ends.
func Execute(ctx context.Context, build BuildInfo) error {
	root, s := newRootCommand(build)
	defer func() { _ = s.close() }()
	return root.ExecuteContext(ctx)
}

// newRootCommand creates the root command for taskmate and the session its
// subcommands share.
func newRootCommand(build BuildInfo) (*cobra.Command, *session) {
	s := &session{build: build}

	root := &cobra.Command{
		Use:   "taskmate",
		Short: "Personal task manager with due-date reminders",
		Long: `taskmate keeps a list of tasks with a priority, a category and an
optional due date, and reminds you shortly before a task is due.

Run without a command to open the terminal UI.`,
		Version: build.Version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return s.open()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUIFunc(cmd, s)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("taskmate %s (commit: %s, built: %s)\n",
		build.Version, build.Commit, build.Date))

	root.PersistentFlags().StringVar(&s.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/taskmate/config.yaml)")
	root.PersistentFlags().StringVar(&s.dbPath, "db", "", "Database file (overrides store.path)")
	root.PersistentFlags().BoolVar(&s.verbose, "verbose", false, "Log at debug level")

	root.AddCommand(
		newListCommand(s),
		newAddCommand(s),
		newEditCommand(s),
		newDoneCommand(s),
		newRmCommand(s),
		newRemindCommand(s),
		newMCPCommand(s),
		newThemeCommand(s),
	)

	return root, s
}
