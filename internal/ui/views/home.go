package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
	"github.com/tgienger/taskmate/internal/ui/keys"
	"github.com/tgienger/taskmate/internal/ui/styles"
)

// Truncation limits for list rows
const (
	rowTitleLimit = 30
	rowDescLimit  = 40
)

type taskItem struct {
	task models.Task
}

func (i taskItem) Title() string       { return i.task.Title }
func (i taskItem) Description() string { return i.task.Description }
func (i taskItem) FilterValue() string { return i.task.Title }

type taskDelegate struct {
	styles *styles.Styles
	clock  task.Clock
	width  int
}

func (d taskDelegate) Height() int                               { return 2 }
func (d taskDelegate) Spacing() int                              { return 1 }
func (d taskDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s",
		titleStyle.Render(taskHeadline(d.styles, it.task, d.clock)),
		descStyle.Render(taskSubline(d.styles, it.task)))
}

// taskHeadline is the first row of a task: priority, title and due marker.
func taskHeadline(s *styles.Styles, t models.Task, clock task.Clock) string {
	parts := []string{
		s.ForPriority(t.Priority).Render(string(t.Priority)),
		task.Truncate(t.Title, rowTitleLimit),
	}
	if t.Completed {
		parts[1] = s.TaskDone.Render(parts[1])
	}
	if task.IsOverdue(t, clock.Now()) {
		parts = append(parts, s.Overdue.Render("overdue"))
	} else if t.DueDate != nil && !t.Completed {
		parts = append(parts, s.TitleMuted.Render("due "+t.DueDate.Local().Format("Jan 2 15:04")))
	}
	return strings.Join(parts, " ")
}

// taskSubline is the second row: category, description and edit marker.
func taskSubline(s *styles.Styles, t models.Task) string {
	var parts []string
	if t.Category != "" {
		parts = append(parts, s.Category.Render(string(t.Category)))
	}
	if t.Description != "" {
		parts = append(parts, task.Truncate(t.Description, rowDescLimit))
	}
	if t.Edited() {
		parts = append(parts, s.Edited.Render("(edited)"))
	}
	return strings.Join(parts, " · ")
}

// HomeView greets the user and lists the most recently touched tasks.
type HomeView struct {
	mirror   *task.Mirror
	list     list.Model
	delegate *taskDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	clock    task.Clock
	recent   int
	width    int
	height   int
}

// NewHomeView creates the home view
func NewHomeView(mirror *task.Mirror, s *styles.Styles, clock task.Clock, recent int) *HomeView {
	delegate := &taskDelegate{styles: s, clock: clock, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Recent tasks"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &HomeView{
		mirror:   mirror,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		clock:    clock,
		recent:   recent,
	}
}

// Refresh re-derives the recent list from the mirror
func (v *HomeView) Refresh() {
	recent := v.mirror.Recent(v.recent)
	items := make([]list.Item, len(recent))
	for i, t := range recent {
		items[i] = taskItem{task: t}
	}
	v.list.SetItems(items)
	v.list.Styles.Title = v.styles.Title
}

func (v *HomeView) Init() tea.Cmd {
	return nil
}

func (v *HomeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, max(msg.Height-8, 3))
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.New):
			return v, func() tea.Msg { return NewTaskMsg{} }
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(taskItem); ok {
				return v, func() tea.Msg { return OpenTaskMsg{ID: item.task.ID} }
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *HomeView) View() string {
	s := v.styles

	if !v.mirror.Loaded() {
		return s.TitleMuted.Render("Loading...")
	}

	greeting := s.Title.Render(task.Greeting(v.clock.Now().Local()))

	var body string
	if len(v.list.Items()) == 0 {
		body = lipgloss.JoinVertical(lipgloss.Left,
			s.TitleMuted.Render("No tasks yet"),
			"",
			s.ButtonPrimary.Render(" n - New Task "),
		)
	} else {
		body = v.list.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		greeting,
		v.renderLastUpdated(),
		"",
		body,
		v.renderHelp(),
	)
	return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
}

func (v *HomeView) renderLastUpdated() string {
	recent := v.mirror.Recent(1)
	if len(recent) == 0 {
		return ""
	}
	return v.styles.StatusBar.Render("Last updated " + formatWhen(recent[0].Touched()))
}

func (v *HomeView) renderHelp() string {
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s tasks • %s settings • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("2"),
			v.styles.HelpKey.Render("3"),
			v.styles.HelpKey.Render("q"),
		),
	)
}
