package views

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskmate/internal/ui/keys"
	"github.com/tgienger/taskmate/internal/ui/styles"
)

// SettingsInfo is the read-only configuration shown on the settings tab.
type SettingsInfo struct {
	DBPath           string
	RemindersEnabled bool
	Lead             time.Duration
}

// SettingsView holds the dark mode switch.
type SettingsView struct {
	styles *styles.Styles
	keys   keys.KeyMap
	info   SettingsInfo
	width  int
	height int
}

// NewSettingsView creates the settings view
func NewSettingsView(s *styles.Styles, info SettingsInfo) *SettingsView {
	return &SettingsView{styles: s, keys: keys.DefaultKeyMap(), info: info}
}

func (v *SettingsView) Init() tea.Cmd {
	return nil
}

func (v *SettingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return BackToHome{} }
		case key.Matches(msg, v.keys.Toggle):
			next := styles.Dark.Name
			if styles.Current.Name == styles.Dark.Name {
				next = styles.Light.Name
			}
			return v, func() tea.Msg { return ThemeChangedMsg{Name: next} }
		}
	}
	return v, nil
}

// View renders the view
func (v *SettingsView) View() string {
	s := v.styles

	check := "[ ]"
	if styles.Current.Name == styles.Dark.Name {
		check = "[x]"
	}

	reminders := "off"
	if v.info.RemindersEnabled {
		reminders = fmt.Sprintf("%s before due", v.info.Lead)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render("Settings"),
		s.ButtonFocused.Render(check+" Dark mode"),
		"",
		s.TitleMuted.Render("Reminders"),
		reminders,
		"",
		s.TitleMuted.Render("Database"),
		v.info.DBPath,
		s.Help.Render(fmt.Sprintf("%s toggle • %s back • %s quit",
			s.HelpKey.Render("space"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("q"),
		)),
	)
	return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
}
