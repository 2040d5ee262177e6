package reminder

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/tgienger/taskmate/internal/db"
	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRepo struct {
	mu        sync.Mutex
	reminders map[string]models.Reminder
	cleared   []string
	dueErr    error
}

func newFakeRepo(rs ...models.Reminder) *fakeRepo {
	r := &fakeRepo{reminders: map[string]models.Reminder{}}
	for _, rem := range rs {
		r.reminders[rem.Handle] = rem
	}
	return r
}

func (f *fakeRepo) InsertReminder(_ context.Context, r models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[r.Handle] = r
	return nil
}

func (f *fakeRepo) DeleteReminder(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reminders, handle)
	return nil
}

func (f *fakeRepo) DueReminders(_ context.Context, at time.Time) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	var due []models.Reminder
	for _, r := range f.reminders {
		if !r.Fired && !r.FireAt.After(at) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeRepo) MarkReminderFired(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.reminders[handle]
	r.Fired = true
	f.reminders[handle] = r
	return nil
}

func (f *fakeRepo) ClearNotification(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, handle)
	return nil
}

type recorder struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (r *recorder) Notify(_ context.Context, rem models.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("no display")
	}
	r.got = append(r.got, rem.Handle)
	return nil
}

func (r *recorder) handles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func TestScheduler_Schedule(t *testing.T) {
	repo := newFakeRepo()
	s := NewScheduler(repo, fixedClock{now}, true)
	content := models.ReminderContent{Title: task.ReminderTitle, Body: "b"}

	h, err := s.Schedule(context.Background(), content, now.Add(time.Hour))

	require.NoError(t, err)
	require.Contains(t, repo.reminders, h)
	assert.Equal(t, content, repo.reminders[h].Content)
	assert.Equal(t, now, repo.reminders[h].CreatedAt)

	require.NoError(t, s.Cancel(context.Background(), h))
	assert.Empty(t, repo.reminders)
	assert.NoError(t, s.Cancel(context.Background(), h), "cancelling twice is fine")
}

func TestScheduler_Disabled(t *testing.T) {
	s := NewScheduler(newFakeRepo(), nil, false)

	_, err := s.Schedule(context.Background(), models.ReminderContent{}, now)

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDispatcher_Tick(t *testing.T) {
	repo := newFakeRepo(
		models.Reminder{Handle: "due", FireAt: now.Add(-time.Minute)},
		models.Reminder{Handle: "later", FireAt: now.Add(time.Minute)},
		models.Reminder{Handle: "old", FireAt: now.Add(-time.Hour), Fired: true},
	)
	rec := &recorder{}
	d := NewDispatcher(repo, rec, WithClock(fixedClock{now}), WithLogger(zaptest.NewLogger(t)))

	n := d.Tick(context.Background())

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"due"}, rec.handles())
	assert.True(t, repo.reminders["due"].Fired)
	assert.Equal(t, []string{"due"}, repo.cleared)

	assert.Zero(t, d.Tick(context.Background()), "a fired reminder is not delivered twice")
}

func TestDispatcher_FailedDeliveryRetries(t *testing.T) {
	repo := newFakeRepo(models.Reminder{Handle: "due", FireAt: now})
	rec := &recorder{fail: true}
	d := NewDispatcher(repo, rec, WithClock(fixedClock{now}))

	assert.Zero(t, d.Tick(context.Background()))
	assert.False(t, repo.reminders["due"].Fired)

	rec.fail = false
	assert.Equal(t, 1, d.Tick(context.Background()))
}

func TestDispatcher_RepoError(t *testing.T) {
	repo := newFakeRepo()
	repo.dueErr = errors.New("locked")
	d := NewDispatcher(repo, &recorder{}, WithLogger(zaptest.NewLogger(t)))

	assert.Zero(t, d.Tick(context.Background()))
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newFakeRepo(models.Reminder{Handle: "due", FireAt: now})
	rec := &recorder{}
	d := NewDispatcher(repo, rec, WithClock(fixedClock{now}), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(rec.handles()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := WriterNotifier{W: &buf}

	err := n.Notify(context.Background(), models.Reminder{
		Content: models.ReminderContent{Title: task.ReminderTitle, Body: `"Essay" is due at 14:30`},
		FireAt:  now,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), task.ReminderTitle)
	assert.Contains(t, buf.String(), `"Essay" is due at 14:30`)
}

func TestEndToEnd_WithDatabase(t *testing.T) {
	store, err := db.New(db.Options{
		Path:   filepath.Join(t.TempDir(), "taskmate.db"),
		Driver: db.DriverPure,
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	clock := &fixedClock{now}
	svc := task.NewService(store, NewScheduler(store, clock, true), task.WithClock(clock))

	due := now.Add(45 * time.Minute)
	created, err := svc.Create(ctx, models.Draft{
		Title:    "Essay",
		Priority: models.PriorityHigh,
		Category: models.CategorySchool,
		DueDate:  &due,
	})
	require.NoError(t, err)
	require.NotNil(t, created.NotificationID)

	rec := &recorder{}
	later := fixedClock{now.Add(16 * time.Minute)}
	n := NewDispatcher(store, rec, WithClock(later)).Tick(ctx)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{*created.NotificationID}, rec.handles())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NotificationID)
	assert.True(t, now.Equal(got.ModifiedAt))
}
