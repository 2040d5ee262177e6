package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/reminder"
	"github.com/tgienger/taskmate/internal/task"
	"github.com/tgienger/taskmate/internal/ui/keys"
	"github.com/tgienger/taskmate/internal/ui/styles"
	"github.com/tgienger/taskmate/internal/ui/views"
)

// Tab is the currently active screen
type Tab int

const (
	TabHome Tab = iota
	TabTasks
	TabSettings
)

var tabNames = []string{"Home", "Tasks", "Settings"}

// bannerDuration is how long a reminder banner stays on screen
const bannerDuration = 6 * time.Second

// Source is the task service as the app sees it
type Source interface {
	views.TaskService
	Subscribe(ctx context.Context, fn task.SnapshotFunc) (func(), error)
}

// ThemeStore persists the theme choice
type ThemeStore interface {
	SetTheme(theme string) error
}

// Options configures an App
type Options struct {
	Service  Source
	Themes   ThemeStore
	Clock    task.Clock
	Theme    string
	Recent   int
	Settings views.SettingsInfo
	Log      *zap.Logger
}

// SnapshotMsg carries a fresh copy of the task collection
type SnapshotMsg struct {
	Tasks []models.Task
}

// ReminderMsg is a reminder delivered while the TUI is running
type ReminderMsg struct {
	Reminder models.Reminder
}

type subscribeFailedMsg struct {
	err error
}

type bannerDoneMsg struct {
	seq int
}

type App struct {
	ctx    context.Context
	svc    Source
	themes ThemeStore
	log    *zap.Logger
	events chan tea.Msg

	mirror *task.Mirror
	styles *styles.Styles
	keys   keys.KeyMap

	tab      Tab
	home     *views.HomeView
	tasks    *views.TaskListView
	settings *views.SettingsView

	banner    string
	bannerSeq int
	status    string
	width     int
	height    int
}

// NewApp creates the application. Background senders stop once ctx is done.
func NewApp(ctx context.Context, opts Options) *App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = task.RealClock{}
	}

	styles.Current = styles.ByName(opts.Theme)
	s := styles.NewStyles(styles.Current)
	mirror := &task.Mirror{}

	return &App{
		ctx:      ctx,
		svc:      opts.Service,
		themes:   opts.Themes,
		log:      opts.Log,
		events:   make(chan tea.Msg, 16),
		mirror:   mirror,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		home:     views.NewHomeView(mirror, s, opts.Clock, opts.Recent),
		tasks:    views.NewTaskListView(ctx, opts.Service, mirror, s, opts.Clock),
		settings: views.NewSettingsView(s, opts.Settings),
	}
}

// Notifier delivers reminders to the running TUI as banners
func (a *App) Notifier() reminder.Notifier {
	return reminder.NotifierFunc(func(ctx context.Context, r models.Reminder) error {
		select {
		case a.events <- ReminderMsg{Reminder: r}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-a.ctx.Done():
			return a.ctx.Err()
		}
	})
}

func (a *App) send(msg tea.Msg) {
	select {
	case a.events <- msg:
	case <-a.ctx.Done():
	}
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) subscribe() tea.Cmd {
	return func() tea.Msg {
		_, err := a.svc.Subscribe(a.ctx, func(tasks []models.Task) {
			a.send(SnapshotMsg{Tasks: tasks})
		})
		if err != nil {
			return subscribeFailedMsg{err: err}
		}
		return nil
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.subscribe(), a.waitForEvent())
}

// applyTheme swaps the palette in place so every view picks it up
func (a *App) applyTheme(name string) {
	styles.Current = styles.ByName(name)
	*a.styles = *styles.NewStyles(styles.Current)
	a.home.Refresh()
}

func (a *App) viewSize() tea.WindowSizeMsg {
	// Tab bar and banner line
	return tea.WindowSizeMsg{Width: a.width, Height: max(a.height-2, 0)}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		size := a.viewSize()
		a.home.Update(size)
		a.tasks.Update(size)
		a.settings.Update(size)
		return a, nil

	case SnapshotMsg:
		a.mirror.Replace(msg.Tasks)
		a.status = ""
		a.home.Refresh()
		a.tasks.Refresh()
		return a, a.waitForEvent()

	case ReminderMsg:
		a.bannerSeq++
		seq := a.bannerSeq
		a.banner = msg.Reminder.Content.Title + "  " + msg.Reminder.Content.Body
		return a, tea.Batch(
			a.waitForEvent(),
			tea.Tick(bannerDuration, func(time.Time) tea.Msg { return bannerDoneMsg{seq: seq} }),
		)

	case bannerDoneMsg:
		if msg.seq == a.bannerSeq {
			a.banner = ""
		}
		return a, nil

	case subscribeFailedMsg:
		a.log.Error("subscribe to tasks", zap.Error(msg.err))
		a.status = "Couldn't load tasks."
		return a, nil

	case views.OpenTaskMsg:
		a.tab = TabTasks
		a.tasks.Open(msg.ID)
		return a, nil

	case views.NewTaskMsg:
		a.tab = TabTasks
		return a, a.tasks.StartNew()

	case views.BackToHome:
		a.tab = TabHome
		return a, nil

	case views.ThemeChangedMsg:
		a.applyTheme(msg.Name)
		if a.themes != nil {
			if err := a.themes.SetTheme(msg.Name); err != nil {
				a.log.Warn("save theme", zap.Error(err))
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.tab != TabTasks || !a.tasks.Capturing() {
			switch {
			case key.Matches(msg, a.keys.Home):
				a.tab = TabHome
				return a, nil
			case key.Matches(msg, a.keys.Tasks):
				a.tab = TabTasks
				return a, nil
			case key.Matches(msg, a.keys.Settings):
				a.tab = TabSettings
				return a, nil
			}
		}
		return a, updateCmd(a.active(), msg)
	}

	// Everything else (blinks, save results, flashes) goes to every view.
	return a, tea.Batch(
		updateCmd(a.home, msg),
		updateCmd(a.tasks, msg),
		updateCmd(a.settings, msg),
	)
}

func updateCmd(m tea.Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func (a *App) active() tea.Model {
	switch a.tab {
	case TabTasks:
		return a.tasks
	case TabSettings:
		return a.settings
	}
	return a.home
}

// CurrentTab returns the active tab
func (a *App) CurrentTab() Tab {
	return a.tab
}

// Banner returns the reminder banner text, if any
func (a *App) Banner() string {
	return a.banner
}

func (a *App) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := string(rune('1'+i)) + " " + name
		if Tab(i) == a.tab {
			tabs[i] = a.styles.TabActive.Render(label)
		} else {
			tabs[i] = a.styles.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) View() string {
	top := ""
	switch {
	case a.banner != "":
		top = a.styles.Banner.Render(a.banner)
	case a.status != "":
		top = a.styles.FieldError.Render(a.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(), top, a.active().View())
}
