package views

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// TaskService is the slice of the lifecycle service the views drive.
type TaskService interface {
	Create(ctx context.Context, d models.Draft) (*models.Task, error)
	Update(ctx context.Context, id string, d models.Draft, completed bool) (*models.Task, error)
	Complete(ctx context.Context, t models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string, confirm task.Confirmer) (bool, error)
}

// OpenTaskMsg asks the app to show a task's detail on the tasks tab.
type OpenTaskMsg struct {
	ID string
}

// NewTaskMsg asks the app to open the new task form.
type NewTaskMsg struct{}

// BackToHome signals to go back to the home tab.
type BackToHome struct{}

// ThemeChangedMsg reports a theme toggle from the settings tab.
type ThemeChangedMsg struct {
	Name string
}

// flashDuration is how long a success message stays before the form closes.
const flashDuration = 800 * time.Millisecond

type flashDoneMsg struct{}

func flashDone() tea.Cmd {
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{} })
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// formatWhen renders a timestamp for list and detail views
func formatWhen(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}
