// Package task holds the TaskMate core: validation, the filter and derive
// rules used by every view, and the lifecycle service that is the only code
// allowed to write to the store.
package task

import (
	"context"
	"time"

	"github.com/tgienger/taskmate/internal/models"
)

// SnapshotFunc receives the full task collection in store order
type SnapshotFunc func([]models.Task)

// Store is the persistent document collection keyed by task id.
type Store interface {
	// Get returns the task with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Task, error)

	// Insert persists a new record and returns the id the store assigned.
	Insert(ctx context.Context, t models.Task) (string, error)

	// Patch applies a partial update.
	Patch(ctx context.Context, id string, p models.Patch) error

	// Delete removes the record.
	Delete(ctx context.Context, id string) error

	// Subscribe delivers the current snapshot immediately and a fresh
	// snapshot after every change until ctx is done or cancel is called.
	Subscribe(ctx context.Context, fn SnapshotFunc) (cancel func(), err error)
}

// Reminders schedules and cancels local reminders.
type Reminders interface {
	Schedule(ctx context.Context, content models.ReminderContent, fireAt time.Time) (handle string, err error)

	// Cancel must not fail for unknown or already fired handles.
	Cancel(ctx context.Context, handle string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm answers yes. Used where the caller already asked.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
