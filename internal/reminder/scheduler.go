// Package reminder books local reminders in the database and delivers them
// when they come due.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// ErrPermissionDenied is returned by Schedule when reminders are switched off.
var ErrPermissionDenied = errors.New("reminders are disabled")

// Repository persists reminders. *db.DB implements it.
type Repository interface {
	InsertReminder(ctx context.Context, r models.Reminder) error
	DeleteReminder(ctx context.Context, handle string) error
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkReminderFired(ctx context.Context, handle string) error
	ClearNotification(ctx context.Context, handle string) error
}

var _ task.Reminders = (*Scheduler)(nil)

// Scheduler books reminders for the task service.
type Scheduler struct {
	repo    Repository
	clock   task.Clock
	enabled bool
}

// NewScheduler creates a scheduler. A disabled scheduler refuses every
// booking with ErrPermissionDenied.
func NewScheduler(repo Repository, clock task.Clock, enabled bool) *Scheduler {
	if clock == nil {
		clock = task.RealClock{}
	}
	return &Scheduler{repo: repo, clock: clock, enabled: enabled}
}

// Schedule stores a reminder and returns its handle
func (s *Scheduler) Schedule(ctx context.Context, content models.ReminderContent, fireAt time.Time) (string, error) {
	if !s.enabled {
		return "", ErrPermissionDenied
	}
	r := models.Reminder{
		Handle:    uuid.NewString(),
		Content:   content,
		FireAt:    fireAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertReminder(ctx, r); err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	return r.Handle, nil
}

// Cancel removes a pending reminder. Unknown or fired handles are ignored.
func (s *Scheduler) Cancel(ctx context.Context, handle string) error {
	return s.repo.DeleteReminder(ctx, handle)
}
