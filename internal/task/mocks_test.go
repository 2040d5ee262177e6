package task

import (
	"context"
	"fmt"
	"time"

	"github.com/tgienger/taskmate/internal/models"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// callLog records collaborator calls across fakes so tests can check order.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type mockStore struct {
	log       *callLog
	tasks     map[string]models.Task
	order     []string
	nextID    int
	insertErr error
	patchErr  error
	deleteErr error
	getErr    error
	patches   []models.Patch
}

func newMockStore(log *callLog) *mockStore {
	return &mockStore{log: log, tasks: map[string]models.Task{}}
}

func (m *mockStore) put(t models.Task) {
	if _, ok := m.tasks[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = t
}

func (m *mockStore) Get(_ context.Context, id string) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *mockStore) Insert(_ context.Context, t models.Task) (string, error) {
	m.log.add("insert")
	if m.insertErr != nil {
		return "", m.insertErr
	}
	m.nextID++
	t.ID = fmt.Sprintf("task-%d", m.nextID)
	m.put(t)
	return t.ID, nil
}

func (m *mockStore) Patch(_ context.Context, id string, p models.Patch) error {
	m.log.add("patch(%s)", id)
	if m.patchErr != nil {
		return m.patchErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	m.patches = append(m.patches, p)
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ModifiedAt != nil {
		t.ModifiedAt = *p.ModifiedAt
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.CompletedAt.Set {
		t.CompletedAt = p.CompletedAt.Value
	}
	if p.NotificationID.Set {
		t.NotificationID = p.NotificationID.Value
	}
	m.tasks[id] = t
	return nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.log.add("delete(%s)", id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.tasks, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockStore) Subscribe(_ context.Context, fn SnapshotFunc) (func(), error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	snap := make([]models.Task, 0, len(m.order))
	for _, id := range m.order {
		snap = append(snap, m.tasks[id])
	}
	fn(snap)
	return func() {}, nil
}

type mockReminders struct {
	log         *callLog
	next        int
	scheduled   map[string]time.Time
	contents    map[string]models.ReminderContent
	scheduleErr error
	cancelErr   error
	cancelled   []string
}

func newMockReminders(log *callLog) *mockReminders {
	return &mockReminders{
		log:       log,
		scheduled: map[string]time.Time{},
		contents:  map[string]models.ReminderContent{},
	}
}

func (m *mockReminders) Schedule(_ context.Context, c models.ReminderContent, fireAt time.Time) (string, error) {
	m.log.add("schedule")
	if m.scheduleErr != nil {
		return "", m.scheduleErr
	}
	m.next++
	h := fmt.Sprintf("rem-%d", m.next)
	m.scheduled[h] = fireAt
	m.contents[h] = c
	return h, nil
}

func (m *mockReminders) Cancel(_ context.Context, handle string) error {
	m.log.add("cancel(%s)", handle)
	m.cancelled = append(m.cancelled, handle)
	if m.cancelErr != nil {
		return m.cancelErr
	}
	delete(m.scheduled, handle)
	return nil
}

type answer struct {
	yes     bool
	err     error
	prompts []string
}

func (a *answer) Confirm(_ context.Context, prompt string) (bool, error) {
	a.prompts = append(a.prompts, prompt)
	return a.yes, a.err
}

func ptr[T any](v T) *T { return &v }
