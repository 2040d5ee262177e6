package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
	"github.com/tgienger/taskmate/internal/ui/styles"
	"github.com/tgienger/taskmate/internal/ui/views"
)

type fakeSource struct {
	snapshot []models.Task
	subErr   error
}

func (f *fakeSource) Create(context.Context, models.Draft) (*models.Task, error) {
	return &models.Task{ID: "n1"}, nil
}

func (f *fakeSource) Update(_ context.Context, id string, _ models.Draft, _ bool) (*models.Task, error) {
	return &models.Task{ID: id}, nil
}

func (f *fakeSource) Complete(_ context.Context, t models.Task) (*models.Task, error) {
	return &t, nil
}

func (f *fakeSource) Delete(context.Context, string, task.Confirmer) (bool, error) {
	return true, nil
}

func (f *fakeSource) Subscribe(_ context.Context, fn task.SnapshotFunc) (func(), error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	fn(f.snapshot)
	return func() {}, nil
}

type themeRecorder struct {
	saved []string
}

func (r *themeRecorder) SetTheme(theme string) error {
	r.saved = append(r.saved, theme)
	return nil
}

func newTestApp(t *testing.T, src *fakeSource) (*App, *themeRecorder) {
	t.Helper()
	prev := styles.Current
	t.Cleanup(func() { styles.Current = prev })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	themes := &themeRecorder{}
	a := NewApp(ctx, Options{Service: src, Themes: themes, Theme: "dark", Recent: 5})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return a, themes
}

func keyPress(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestApp_SnapshotReachesViews(t *testing.T) {
	src := &fakeSource{snapshot: []models.Task{
		{ID: "a", Title: "Read chapter 4", Priority: models.PriorityLow, CreatedAt: time.Now()},
	}}
	a, _ := newTestApp(t, src)

	assert.Nil(t, a.subscribe()())
	msg := <-a.events
	require.IsType(t, SnapshotMsg{}, msg)

	_, cmd := a.Update(msg)
	assert.NotNil(t, cmd, "keeps waiting for events")
	assert.Contains(t, a.View(), "Read chapter 4")
}

func TestApp_SubscribeFailure(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{subErr: errors.New("locked")})

	a.Update(a.subscribe()())

	assert.Contains(t, a.View(), "Couldn't load tasks.")
}

func TestApp_NotifierShowsBanner(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{})

	err := a.Notifier().Notify(context.Background(), models.Reminder{
		Content: models.ReminderContent{Title: task.ReminderTitle, Body: `"Essay" is due soon`},
	})
	require.NoError(t, err)

	msg := a.waitForEvent()()
	_, cmd := a.Update(msg)
	assert.NotNil(t, cmd)
	assert.Contains(t, a.Banner(), `"Essay" is due soon`)

	a.Update(bannerDoneMsg{seq: a.bannerSeq})
	assert.Empty(t, a.Banner())
}

func TestApp_NotifierStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := NewApp(ctx, Options{Service: &fakeSource{}})
	for range cap(a.events) {
		a.events <- nil
	}
	cancel()

	err := a.Notifier().Notify(context.Background(), models.Reminder{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestApp_TabKeys(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{})

	a.Update(keyPress("2"))
	assert.Equal(t, TabTasks, a.CurrentTab())

	a.Update(keyPress("3"))
	assert.Equal(t, TabSettings, a.CurrentTab())

	a.Update(keyPress("1"))
	assert.Equal(t, TabHome, a.CurrentTab())
}

func TestApp_TabKeysIgnoredWhileTyping(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{})
	a.Update(keyPress("2"))
	a.Update(keyPress("/"))

	a.Update(keyPress("1"))

	assert.Equal(t, TabTasks, a.CurrentTab())
}

func TestApp_NavigationMessages(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{})

	a.Update(views.NewTaskMsg{})
	assert.Equal(t, TabTasks, a.CurrentTab())
	assert.Contains(t, a.View(), "New Task")

	a.Update(views.BackToHome{})
	assert.Equal(t, TabHome, a.CurrentTab())
}

func TestApp_ThemeChange(t *testing.T) {
	a, themes := newTestApp(t, &fakeSource{})

	a.Update(views.ThemeChangedMsg{Name: "light"})

	assert.Equal(t, styles.Light.Name, styles.Current.Name)
	assert.Equal(t, []string{"light"}, themes.saved)
}
