package task

import (
	"slices"
	"sync"

	"github.com/tgienger/taskmate/internal/models"
)

// Mirror is a read-through copy of the store's collection. Every snapshot
// replaces it wholesale.
type Mirror struct {
	mu     sync.RWMutex
	tasks  []models.Task
	loaded bool
}

// Replace swaps in a new snapshot.
func (m *Mirror) Replace(snapshot []models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = slices.Clone(snapshot)
	m.loaded = true
}

// Loaded reports whether at least one snapshot has arrived.
func (m *Mirror) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Tasks returns a copy of the collection in store order.
func (m *Mirror) Tasks() []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tasks)
}

// View returns the tasks matching f in store order.
func (m *Mirror) View(f Filter) []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Apply(m.tasks, f)
}

// Recent returns the n most recently touched tasks.
func (m *Mirror) Recent(n int) []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Recent(m.tasks, n)
}

// Find looks a task up by id.
func (m *Mirror) Find(id string) (models.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}
