package task

import (
	"strings"

	"github.com/tgienger/taskmate/internal/models"
)

// All disables a priority or category filter.
const All = "All"

// Filter is the view configuration applied to a snapshot.
// Empty Priority and Category mean All.
type Filter struct {
	Priority  string
	Category  string
	Completed bool
	Search    string
}

// Matches reports whether t belongs in the view described by f.
func Matches(t models.Task, f Filter) bool {
	return priorityOK(t, f.Priority) &&
		categoryOK(t, f.Category) &&
		t.Completed == f.Completed &&
		searchOK(t, f.Search)
}

// Apply keeps the tasks matching f, in their original order.
func Apply(tasks []models.Task, f Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func priorityOK(t models.Task, want string) bool {
	return want == "" || want == All || string(t.Priority) == want
}

func categoryOK(t models.Task, want string) bool {
	return want == "" || want == All || string(t.Category) == want
}

func searchOK(t models.Task, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}
