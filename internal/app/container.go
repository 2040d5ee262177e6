// Package app opens the database and wires the task service, reminders and
// watcher from configuration. Every entry point (TUI, CLI commands, MCP)
// goes through a Container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/taskmate/internal/config"
	"github.com/tgienger/taskmate/internal/db"
	"github.com/tgienger/taskmate/internal/reminder"
	"github.com/tgienger/taskmate/internal/task"
)

// ThemeSetting is the settings key holding the saved theme
const ThemeSetting = "theme"

// Container holds the wired application components
type Container struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *db.DB
	Service   *task.Service
	Scheduler *reminder.Scheduler
	Clock     task.Clock
}

// Option configures a Container
type Option func(*Container)

// WithClock overrides the time source for every component
func WithClock(c task.Clock) Option {
	return func(ct *Container) { ct.Clock = c }
}

// Open creates the database connection and the services on top of it
func Open(cfg *config.Config, log *zap.Logger, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Container{Config: cfg, Log: log, Clock: task.RealClock{}}
	for _, opt := range opts {
		opt(c)
	}

	database, err := db.New(db.Options{
		Path:   cfg.Store.Path,
		Driver: cfg.Store.Driver,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	c.DB = database

	c.Scheduler = reminder.NewScheduler(database, c.Clock, cfg.Reminders.Enabled)
	c.Service = task.NewService(database, c.Scheduler,
		task.WithClock(c.Clock),
		task.WithLogger(log),
		task.WithLead(cfg.Reminders.Lead),
	)

	log.Debug("container ready",
		zap.String("db", database.Path()),
		zap.String("driver", cfg.Store.Driver))
	return c, nil
}

// Close releases the database
func (c *Container) Close() error {
	_ = c.Log.Sync()
	return c.DB.Close()
}

// Dispatcher returns a reminder dispatcher delivering to n
func (c *Container) Dispatcher(n reminder.Notifier) *reminder.Dispatcher {
	return reminder.NewDispatcher(c.DB, n,
		reminder.WithClock(c.Clock),
		reminder.WithInterval(c.Config.Reminders.PollInterval),
		reminder.WithLogger(c.Log),
	)
}

// RunBackground runs the reminder dispatcher and, when enabled, the store
// watcher until ctx is done.
func (c *Container) RunBackground(ctx context.Context, n reminder.Notifier) error {
	g, ctx := errgroup.WithContext(ctx)

	if c.Config.Reminders.Enabled {
		d := c.Dispatcher(n)
		g.Go(func() error { return d.Run(ctx) })
	}

	if c.Config.Store.Watch {
		w, err := db.NewWatcher(c.DB)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			c.Log.Warn("store watcher disabled", zap.Error(err))
			w.Stop()
		} else {
			g.Go(func() error {
				<-ctx.Done()
				w.Stop()
				return nil
			})
		}
	}

	return g.Wait()
}

// Theme returns the saved theme, falling back to the configured default
func (c *Container) Theme() string {
	saved, err := c.DB.GetSetting(ThemeSetting)
	if err != nil {
		c.Log.Warn("load theme", zap.Error(err))
	}
	if saved == config.ThemeLight || saved == config.ThemeDark {
		return saved
	}
	return c.Config.UI.Theme
}

// SetTheme persists the theme choice
func (c *Container) SetTheme(theme string) error {
	if theme != config.ThemeLight && theme != config.ThemeDark {
		return fmt.Errorf("unknown theme: %s", theme)
	}
	return c.DB.SetSetting(ThemeSetting, theme)
}
