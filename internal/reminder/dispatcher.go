package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// DefaultInterval is how often the dispatcher polls for due reminders.
const DefaultInterval = 15 * time.Second

// Notifier shows a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r models.Reminder) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, r models.Reminder) error {
	return f(ctx, r)
}

// Dispatcher delivers due reminders. A reminder is marked fired only after
// its notifier succeeds, so a failed delivery is retried on the next tick.
type Dispatcher struct {
	repo     Repository
	notifier Notifier
	clock    task.Clock
	interval time.Duration
	log      *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) DispatcherOption {
	return func(di *Dispatcher) {
		if d > 0 {
			di.interval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(c task.Clock) DispatcherOption {
	return func(di *Dispatcher) { di.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(di *Dispatcher) { di.log = l }
}

// NewDispatcher creates a dispatcher
func NewDispatcher(repo Repository, notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		repo:     repo,
		notifier: notifier,
		clock:    task.RealClock{},
		interval: DefaultInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(zap.String("component", "reminder"))
	return d
}

// Run polls until ctx is done. It checks once immediately.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.Tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick delivers every reminder due now and returns how many were delivered.
func (d *Dispatcher) Tick(ctx context.Context) int {
	due, err := d.repo.DueReminders(ctx, d.clock.Now())
	if err != nil {
		if ctx.Err() == nil {
			d.log.Error("load due reminders", zap.Error(err))
		}
		return 0
	}

	delivered := 0
	for _, r := range due {
		if ctx.Err() != nil {
			break
		}
		if err := d.notifier.Notify(ctx, r); err != nil {
			d.log.Warn("deliver reminder", zap.String("handle", r.Handle), zap.Error(err))
			continue
		}
		if err := d.repo.MarkReminderFired(ctx, r.Handle); err != nil {
			d.log.Error("mark reminder fired", zap.String("handle", r.Handle), zap.Error(err))
			continue
		}
		if err := d.repo.ClearNotification(ctx, r.Handle); err != nil {
			d.log.Warn("clear task notification", zap.String("handle", r.Handle), zap.Error(err))
		}
		delivered++
		d.log.Info("reminder fired", zap.String("handle", r.Handle))
	}
	return delivered
}
