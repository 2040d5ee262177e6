package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
)

// DefaultLead is how long before the due date a reminder fires.
const DefaultLead = 30 * time.Minute

// ReminderTitle is the heading of every task reminder.
const ReminderTitle = "⏰ Task Reminder"

// Service implements the task lifecycle operations. It is the only writer
// to the store.
type Service struct {
	store     Store
	reminders Reminders
	clock     Clock
	log       *zap.Logger
	lead      time.Duration
	schema    int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithLead sets how long before the due date reminders fire.
func WithLead(d time.Duration) Option {
	return func(s *Service) { s.lead = d }
}

// WithSchema sets the schema version drafts are validated against.
func WithSchema(v int) Option {
	return func(s *Service) { s.schema = v }
}

// NewService creates a lifecycle service over the given collaborators.
func NewService(store Store, reminders Reminders, opts ...Option) *Service {
	s := &Service{
		store:     store,
		reminders: reminders,
		clock:     RealClock{},
		log:       zap.NewNop(),
		lead:      DefaultLead,
		schema:    models.SchemaCurrent,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "task"))
	return s
}

// Create validates the draft and persists a new open task, scheduling a
// reminder when the due date leaves room for one.
func (s *Service) Create(ctx context.Context, d models.Draft) (*models.Task, error) {
	d, verr := Validate(d, s.schema)
	if verr != nil {
		return nil, verr
	}

	now := s.clock.Now()
	t := models.Task{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	t.NotificationID = s.schedule(ctx, t, now)

	id, err := s.store.Insert(ctx, t)
	if err != nil {
		s.cancel(ctx, t.NotificationID)
		return nil, storeErr("save task", err)
	}
	t.ID = id

	s.log.Info("task created", zap.String("id", id), zap.Bool("reminder", t.NotificationID != nil))
	return &t, nil
}

// Update replaces the editable fields of a task and sets its completion
// state. A new reminder is scheduled if the task stays open with a due date
// far enough ahead; the previous one is cancelled once the patch is stored.
func (s *Service) Update(ctx context.Context, id string, d models.Draft, completed bool) (*models.Task, error) {
	d, verr := Validate(d, s.schema)
	if verr != nil {
		return nil, verr
	}

	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("load task", err)
	}

	now := s.clock.Now()
	t := *cur
	t.Title = d.Title
	t.Description = d.Description
	t.Priority = d.Priority
	t.Category = d.Category
	t.DueDate = d.DueDate
	t.ModifiedAt = now
	t.Completed = completed
	switch {
	case !completed:
		t.CompletedAt = nil
	case !cur.Completed || cur.CompletedAt == nil:
		t.CompletedAt = &now
	}
	t.NotificationID = nil
	if !completed {
		t.NotificationID = s.schedule(ctx, t, now)
	}

	p := models.Patch{
		Title:       &t.Title,
		Description: &t.Description,
		Priority:    &t.Priority,
		Category:    &t.Category,
		DueDate:     t.DueDate,
		ModifiedAt:  &t.ModifiedAt,
		Completed:   &t.Completed,
		CompletedAt: models.Optional[time.Time]{Set: true, Value: t.CompletedAt},
		NotificationID: models.Optional[string]{
			Set:   true,
			Value: t.NotificationID,
		},
	}
	if err := s.store.Patch(ctx, id, p); err != nil {
		s.cancel(ctx, t.NotificationID)
		return nil, storeErr("save task", err)
	}
	s.cancel(ctx, cur.NotificationID)

	s.log.Info("task updated", zap.String("id", id), zap.Bool("completed", completed))
	return &t, nil
}

// Complete marks a task done without touching its other fields.
func (s *Service) Complete(ctx context.Context, t models.Task) (*models.Task, error) {
	now := s.clock.Now()

	done := true
	p := models.Patch{
		ModifiedAt:     &now,
		Completed:      &done,
		CompletedAt:    models.Some(now),
		NotificationID: models.Null[string](),
	}
	if err := s.store.Patch(ctx, t.ID, p); err != nil {
		return nil, storeErr("complete task", err)
	}
	s.cancel(ctx, t.NotificationID)

	t.Completed = true
	t.CompletedAt = &now
	t.ModifiedAt = now
	t.NotificationID = nil

	s.log.Info("task completed", zap.String("id", t.ID))
	return &t, nil
}

// Delete removes a task after the confirmer agrees. It reports whether the
// task was deleted; a declined confirmation is not an error.
func (s *Service) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return false, storeErr("load task", err)
	}

	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Delete %q?", cur.Title))
	if err != nil {
		return false, fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.cancel(ctx, cur.NotificationID)

	if err := s.store.Delete(ctx, id); err != nil {
		return false, storeErr("delete task", err)
	}

	s.log.Info("task deleted", zap.String("id", id))
	return true, nil
}

// Get loads a single task.
func (s *Service) Get(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("load task", err)
	}
	return t, nil
}

// Snapshot returns the current collection in store order.
func (s *Service) Snapshot(ctx context.Context) ([]models.Task, error) {
	var (
		mu    sync.Mutex
		first []models.Task
		got   bool
	)
	cancel, err := s.Subscribe(ctx, func(tasks []models.Task) {
		mu.Lock()
		defer mu.Unlock()
		if !got {
			first, got = tasks, true
		}
	})
	if err != nil {
		return nil, err
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	return first, nil
}

// Subscribe forwards to the store's snapshot feed.
func (s *Service) Subscribe(ctx context.Context, fn SnapshotFunc) (func(), error) {
	cancel, err := s.store.Subscribe(ctx, fn)
	if err != nil {
		return nil, storeErr("load tasks", err)
	}
	return cancel, nil
}

// ReminderContent builds the reminder text for a task.
func ReminderContent(t models.Task) models.ReminderContent {
	body := "\"" + t.Title + "\" is due"
	if t.DueDate != nil {
		body = "\"" + t.Title + "\" is due at " + t.DueDate.Local().Format("15:04")
	}
	return models.ReminderContent{Title: ReminderTitle, Body: body}
}

// schedule books a reminder at due-lead when that is still ahead of now.
// Failures leave the task without a reminder.
func (s *Service) schedule(ctx context.Context, t models.Task, now time.Time) *string {
	if t.DueDate == nil {
		return nil
	}
	fireAt := t.DueDate.Add(-s.lead)
	if !fireAt.After(now) {
		return nil
	}
	handle, err := s.reminders.Schedule(ctx, ReminderContent(t), fireAt)
	if err != nil {
		s.log.Warn("schedule reminder failed", zap.Error(err))
		return nil
	}
	return &handle
}

// cancel drops a pending reminder. The reminder may already have fired, so
// failures are only logged.
func (s *Service) cancel(ctx context.Context, handle *string) {
	if handle == nil || *handle == "" {
		return
	}
	if err := s.reminders.Cancel(ctx, *handle); err != nil {
		s.log.Warn("cancel reminder failed", zap.String("handle", *handle), zap.Error(err))
	}
}
