package reminder

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
)

var (
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	bannerTime  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// WriterNotifier prints reminders to a terminal.
type WriterNotifier struct {
	W io.Writer
}

// Notify writes a two-line banner.
func (n WriterNotifier) Notify(_ context.Context, r models.Reminder) error {
	_, err := fmt.Fprintf(n.W, "%s %s\n%s\n",
		bannerTitle.Render(r.Content.Title),
		bannerTime.Render(r.FireAt.Local().Format("15:04")),
		r.Content.Body)
	return err
}

// LogNotifier records reminders in the log only.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify logs the reminder.
func (n LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.Log.Info("reminder", zap.String("title", r.Content.Title), zap.String("body", r.Content.Body))
	return nil
}
