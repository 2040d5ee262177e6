package task

import (
	"slices"
	"time"

	"github.com/tgienger/taskmate/internal/models"
)

// SortByRecent returns a copy of tasks, most recently touched first.
// Ties keep their store order.
func SortByRecent(tasks []models.Task) []models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b models.Task) int {
		return b.Touched().Compare(a.Touched())
	})
	return out
}

// Recent returns the n most recently touched tasks.
func Recent(tasks []models.Task, n int) []models.Task {
	sorted := SortByRecent(tasks)
	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// IsOverdue reports whether an open task is past its due date.
func IsOverdue(t models.Task, now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// Truncate shortens text to limit runes plus an ellipsis. Display only.
func Truncate(text string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}

// Greeting returns the home screen greeting for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good Morning"
	case h < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}
