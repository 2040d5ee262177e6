package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
	"github.com/tgienger/taskmate/internal/ui/styles"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// fakeService validates like the real service and records calls.
type fakeService struct {
	created   []models.Draft
	updated   []string
	completed []string
	deleted   []string
	err       error
}

func (f *fakeService) Create(_ context.Context, d models.Draft) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, verr := task.Validate(d, models.SchemaCurrent)
	if verr != nil {
		return nil, verr
	}
	f.created = append(f.created, d)
	return &models.Task{ID: fmt.Sprintf("new-%d", len(f.created)), Title: d.Title}, nil
}

func (f *fakeService) Update(_ context.Context, id string, d models.Draft, completed bool) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, id)
	return &models.Task{ID: id, Title: d.Title, Completed: completed}, nil
}

func (f *fakeService) Complete(_ context.Context, t models.Task) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.completed = append(f.completed, t.ID)
	t.Completed = true
	return &t, nil
}

func (f *fakeService) Delete(ctx context.Context, id string, confirm task.Confirmer) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	ok, _ := confirm.Confirm(ctx, "delete")
	if ok {
		f.deleted = append(f.deleted, id)
	}
	return ok, nil
}

func fixture() []models.Task {
	done := now.Add(-time.Hour)
	return []models.Task{
		{ID: "a", Title: "Essay draft", Description: "intro", Priority: models.PriorityHigh, Category: models.CategorySchool, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "b", Title: "Groceries", Priority: models.PriorityLow, Category: models.CategoryPersonal, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "c", Title: "Standup notes", Priority: models.PriorityMedium, Category: models.CategoryWork, CreatedAt: now.Add(-4 * time.Hour), Completed: true, CompletedAt: &done},
	}
}

func newTaskView(t *testing.T, tasks []models.Task) (*TaskListView, *fakeService, *task.Mirror) {
	t.Helper()
	mirror := &task.Mirror{}
	mirror.Replace(tasks)
	svc := &fakeService{}
	v := NewTaskListView(context.Background(), svc, mirror, styles.NewStyles(styles.Dark), fixedClock{now})
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	v.Refresh()
	return v, svc, mirror
}

func press(m tea.Model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	save  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func ids(tasks []models.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestTaskListView_ShowsOpenTasksByDefault(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	assert.Equal(t, []string{"a", "b"}, ids(v.Tasks()))
	assert.Contains(t, v.View(), "TaskMate")
}

func TestTaskListView_PriorityDropdown(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	press(v, runes("p"), down, enter)

	assert.Equal(t, "High", v.Filter().Priority)
	assert.Equal(t, []string{"a"}, ids(v.Tasks()))
}

func TestTaskListView_CategoryDropdown(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	press(v, runes("g"), down, down, enter)

	assert.Equal(t, "Personal", v.Filter().Category)
	assert.Equal(t, []string{"b"}, ids(v.Tasks()))
}

func TestTaskListView_ShowCompleted(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	press(v, runes("c"))

	assert.Equal(t, []string{"c"}, ids(v.Tasks()))
	assert.Contains(t, v.View(), "TaskMate (Completed)")
}

func TestTaskListView_EmptyStates(t *testing.T) {
	v, _, _ := newTaskView(t, nil)
	assert.Contains(t, v.View(), "No tasks yet")

	v, _, _ = newTaskView(t, fixture())
	press(v, runes("/"), runes("zzz"))

	assert.True(t, v.Capturing(), "search input owns keystrokes")
	assert.Empty(t, v.Tasks())
	assert.Contains(t, v.View(), "Task not found")
}

func TestTaskListView_SearchMatchesDescription(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	press(v, runes("/"), runes("INTRO"), enter)

	assert.False(t, v.Capturing())
	assert.Equal(t, []string{"a"}, ids(v.Tasks()))
}

func TestTaskListView_NewTaskReportsFieldErrors(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())

	press(v, runes("n"))
	require.True(t, v.Capturing())

	cmd := press(v, save)
	require.NotNil(t, cmd)
	v.Update(cmd())

	out := v.View()
	assert.Contains(t, out, "Title is required")
	assert.Contains(t, out, "Priority required")
	assert.Empty(t, svc.created)
}

func TestTaskListView_BadDueDate(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())
	press(v, runes("n"))
	v.editTitle.SetValue("Call mom")
	v.editDue.SetValue("tomorrow")

	cmd := press(v, save)

	assert.Nil(t, cmd, "nothing is sent to the service")
	assert.True(t, v.fieldErrs.Has(task.FieldDueDate))
	assert.Empty(t, svc.created)
}

func TestTaskListView_SaveFlashesThenCloses(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())
	press(v, runes("n"))
	v.editTitle.SetValue("Call mom")
	v.editPriority = 0
	v.editCategory = 1
	v.editDue.SetValue("2026-03-11 18:00")

	cmd := press(v, save)
	require.NotNil(t, cmd)
	_, flash := v.Update(cmd())

	require.Len(t, svc.created, 1)
	assert.Equal(t, models.PriorityHigh, svc.created[0].Priority)
	assert.Equal(t, models.CategoryPersonal, svc.created[0].Category)
	require.NotNil(t, svc.created[0].DueDate)
	assert.Contains(t, v.View(), "Task added!")
	assert.NotNil(t, flash)

	v.Update(flashDoneMsg{})
	assert.False(t, v.Capturing())
}

func TestTaskListView_StoreFailure(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())
	svc.err = &task.StoreError{Op: "insert task", Err: errors.New("disk full")}
	press(v, runes("n"))
	v.editTitle.SetValue("Call mom")
	v.editPriority = 0
	v.editCategory = 0

	cmd := press(v, save)
	v.Update(cmd())

	assert.True(t, v.Capturing(), "form stays open")
	assert.Contains(t, v.View(), msgSaveFailed)
}

func TestTaskListView_EditShowsCompletedSwitch(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())

	press(v, runes("e"))
	require.True(t, v.editing)
	assert.Contains(t, v.View(), "Completed")

	for v.focusedField() != fieldCompleted {
		press(v, tea.KeyMsg{Type: tea.KeyTab})
	}
	press(v, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	cmd := press(v, save)
	v.Update(cmd())

	assert.Equal(t, []string{"a"}, svc.updated)
	assert.Contains(t, v.View(), "Task updated!")
}

func TestTaskListView_DeleteConfirm(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())

	press(v, runes("d"))
	assert.Contains(t, v.View(), `"Essay draft"`)
	assert.Nil(t, press(v, runes("n")))
	assert.Empty(t, svc.deleted)

	press(v, runes("d"))
	cmd := press(v, runes("y"))
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, []string{"a"}, svc.deleted)
}

func TestTaskListView_Complete(t *testing.T) {
	v, svc, _ := newTaskView(t, fixture())

	press(v, down)
	cmd := press(v, runes("x"))
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, []string{"b"}, svc.completed)
}

func TestTaskListView_OpenResetsHidingFilters(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())
	press(v, runes("p"), down, enter)

	v.Open("c")

	assert.True(t, v.viewingTask)
	assert.True(t, v.showingCompleted)
	assert.Equal(t, task.All, v.Filter().Priority)
	out := v.View()
	assert.Contains(t, out, "Standup notes")
	assert.Contains(t, out, "Completed")
}

func TestTaskListView_DetailClosesWhenTaskDisappears(t *testing.T) {
	v, _, mirror := newTaskView(t, fixture())
	press(v, enter)
	require.True(t, v.viewingTask)

	mirror.Replace(fixture()[1:])
	v.Refresh()

	assert.False(t, v.viewingTask)
}

func TestTaskListView_EscGoesHome(t *testing.T) {
	v, _, _ := newTaskView(t, fixture())

	cmd := press(v, esc)
	require.NotNil(t, cmd)

	assert.IsType(t, BackToHome{}, cmd())
}

func TestHomeView(t *testing.T) {
	mirror := &task.Mirror{}
	v := NewHomeView(mirror, styles.NewStyles(styles.Dark), fixedClock{now}, 3)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Contains(t, v.View(), "Loading...")

	mirror.Replace(nil)
	v.Refresh()
	assert.Contains(t, v.View(), "No tasks yet")

	mirror.Replace(fixture())
	v.Refresh()
	out := v.View()
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Last updated")

	cmd := press(v, enter)
	require.NotNil(t, cmd)
	assert.Equal(t, OpenTaskMsg{ID: "b"}, cmd(), "most recently touched first")

	cmd = press(v, runes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, NewTaskMsg{}, cmd())
}

func TestSettingsView_Toggle(t *testing.T) {
	prev := styles.Current
	t.Cleanup(func() { styles.Current = prev })
	styles.Current = styles.Dark

	v := NewSettingsView(styles.NewStyles(styles.Dark), SettingsInfo{DBPath: "/tmp/taskmate.db", RemindersEnabled: true, Lead: 30 * time.Minute})
	assert.Contains(t, v.View(), "[x] Dark mode")
	assert.Contains(t, v.View(), "30m0s before due")

	cmd := press(v, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	assert.Equal(t, ThemeChangedMsg{Name: "light"}, cmd())
}
