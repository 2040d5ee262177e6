package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// testEnv points every run at a fresh pure-Go database with no config file.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("TASKMATE_STORE__DRIVER", "sqlite")
	t.Setenv("TASKMATE_STORE__WATCH", "false")
	return filepath.Join(dir, "taskmate.db")
}

// run executes taskmate with args against dbPath and returns stdout.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd, s := newRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	defer func() { _ = s.close() }()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := run(t, dbPath, args...)
	require.NoError(t, err, out)
	return out
}

func listJSON(t *testing.T, dbPath string, args ...string) []models.Task {
	t.Helper()
	out := mustRun(t, dbPath, append([]string{"list", "-o", "json"}, args...)...)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	return tasks
}

func addTask(t *testing.T, dbPath, title, priority, category string) string {
	t.Helper()
	out := mustRun(t, dbPath, "add", "--title", title, "--priority", priority, "--category", category,
		"--due", "2030-06-01 12:00")
	require.True(t, strings.HasPrefix(out, "Created task "), out)
	return strings.TrimSpace(strings.TrimPrefix(out, "Created task "))
}

func TestVersion(t *testing.T) {
	db := testEnv(t)

	out := mustRun(t, db, "--version")

	assert.Equal(t, "taskmate 1.2.3 (commit: abc, built: today)\n", out)
}

func TestAddAndList(t *testing.T) {
	db := testEnv(t)
	addTask(t, db, "Essay draft", "high", "school")
	addTask(t, db, "Groceries", "Low", "Personal")

	tasks := listJSON(t, db)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Essay draft", tasks[0].Title)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, models.CategorySchool, tasks[0].Category)

	tasks = listJSON(t, db, "--priority", "low")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Groceries", tasks[0].Title)

	out := mustRun(t, db, "list")
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "Essay draft")
}

func TestAdd_ValidationError(t *testing.T) {
	db := testEnv(t)

	_, err := run(t, db, "add", "--title", "   ")

	var verr *task.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(task.FieldTitle))
	assert.True(t, verr.Has(task.FieldPriority))
}

func TestAdd_BadDueDate(t *testing.T) {
	db := testEnv(t)

	_, err := run(t, db, "add", "--title", "x", "--priority", "low", "--category", "work", "--due", "soon")

	assert.ErrorContains(t, err, "invalid due date")
}

func TestEditAndDone(t *testing.T) {
	db := testEnv(t)
	id := addTask(t, db, "Essay draft", "high", "school")

	mustRun(t, db, "edit", id[:6], "--title", "Essay final", "--due", "2030-01-02 09:00")
	tasks := listJSON(t, db)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Essay final", tasks[0].Title)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority, "untouched fields keep their value")
	require.NotNil(t, tasks[0].DueDate)
	assert.NotNil(t, tasks[0].NotificationID, "reminder scheduled for the new due date")

	out := mustRun(t, db, "done", id)
	assert.Contains(t, out, "Completed task "+id)
	assert.Empty(t, listJSON(t, db))

	done := listJSON(t, db, "--completed")
	require.Len(t, done, 1)
	assert.True(t, done[0].Completed)
	assert.NotNil(t, done[0].CompletedAt)
	assert.Nil(t, done[0].NotificationID, "completing cancels the reminder")

	mustRun(t, db, "edit", id, "--completed=false")
	assert.Len(t, listJSON(t, db), 1)
}

func TestRm(t *testing.T) {
	db := testEnv(t)
	id := addTask(t, db, "Groceries", "low", "personal")

	prev := newConfirmer
	t.Cleanup(func() { newConfirmer = prev })
	var prompts []string
	answer := false
	newConfirmer = func(*cobra.Command) task.Confirmer {
		return task.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
			prompts = append(prompts, prompt)
			return answer, nil
		})
	}

	out := mustRun(t, db, "rm", id)
	assert.Contains(t, out, "Not deleted")
	assert.Equal(t, []string{`Delete "Groceries"?`}, prompts)
	assert.Len(t, listJSON(t, db), 1)

	answer = true
	out = mustRun(t, db, "rm", id)
	assert.Contains(t, out, "Deleted task "+id)
	assert.Empty(t, listJSON(t, db))
}

func TestRm_YesSkipsPrompt(t *testing.T) {
	db := testEnv(t)
	id := addTask(t, db, "Groceries", "low", "personal")

	prev := newConfirmer
	t.Cleanup(func() { newConfirmer = prev })
	newConfirmer = func(*cobra.Command) task.Confirmer {
		t.Fatal("prompted despite --yes")
		return nil
	}

	mustRun(t, db, "rm", "--yes", id)

	assert.Empty(t, listJSON(t, db))
}

func TestUnknownID(t *testing.T) {
	db := testEnv(t)

	_, err := run(t, db, "done", "nope")

	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestListFormats(t *testing.T) {
	db := testEnv(t)
	addTask(t, db, "Essay draft", "high", "school")

	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, db, "list", "-o", "yaml")), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "Essay draft", fromYAML[0]["title"])

	var fromTOML struct {
		Tasks []map[string]any `toml:"tasks"`
	}
	require.NoError(t, toml.Unmarshal([]byte(mustRun(t, db, "list", "-o", "toml")), &fromTOML))
	require.Len(t, fromTOML.Tasks, 1)
	assert.Equal(t, "High", fromTOML.Tasks[0]["priority"])

	_, err := run(t, db, "list", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestListRecent(t *testing.T) {
	db := testEnv(t)
	first := addTask(t, db, "First", "low", "work")
	addTask(t, db, "Second", "low", "work")
	mustRun(t, db, "edit", first, "--title", "First again")

	tasks := listJSON(t, db, "--recent", "1")

	require.Len(t, tasks, 1)
	assert.Equal(t, "First again", tasks[0].Title)
}

func TestTheme(t *testing.T) {
	db := testEnv(t)

	assert.Equal(t, "dark\n", mustRun(t, db, "theme"))
	mustRun(t, db, "theme", "toggle")
	assert.Equal(t, "light\n", mustRun(t, db, "theme"))

	_, err := run(t, db, "theme", "purple")
	assert.Error(t, err)
}

func TestRootRunsTUI(t *testing.T) {
	db := testEnv(t)
	prev := runTUIFunc
	t.Cleanup(func() { runTUIFunc = prev })

	var opened bool
	runTUIFunc = func(_ *cobra.Command, s *session) error {
		opened = s.container != nil
		return nil
	}

	mustRun(t, db)

	assert.True(t, opened)
}
