package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

// Output formats for list
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTOML  = "toml"
)

// shortIDLen is how much of a task id the table shows. Commands accept
// any unambiguous prefix.
const shortIDLen = 8

func writeTasks(w io.Writer, format string, tasks []models.Task, now time.Time) error {
	switch format {
	case formatTable, "":
		return writeTable(w, tasks, now)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(tasks)
	case formatTOML:
		// TOML documents need a table at the top level.
		return toml.NewEncoder(w).Encode(struct {
			Tasks []models.Task `toml:"tasks"`
		}{Tasks: tasks})
	default:
		return fmt.Errorf("unknown output format: %s (supported: table, json, yaml, toml)", format)
	}
}

func writeTable(w io.Writer, tasks []models.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPRIORITY\tCATEGORY\tDUE\tTITLE")
	for _, t := range tasks {
		id := t.ID
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		category := string(t.Category)
		if category == "" {
			category = "-"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format(task.DueLayout)
			if task.IsOverdue(t, now) {
				due += " (overdue)"
			}
		}
		title := t.Title
		if t.Completed {
			title = "✓ " + title
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, t.Priority, category, due, title)
	}
	return tw.Flush()
}
