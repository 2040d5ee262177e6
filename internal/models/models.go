package models

import (
	"strings"
	"time"
)

// Schema revisions of the task record. Version 1 records carry no category
// and no completion state; they are read back with defaults.
const (
	SchemaV1      = 1
	SchemaV2      = 2
	SchemaCurrent = SchemaV2
)

// Priority of a task
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists the selectable priorities in display order
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority matches a priority name case-insensitively
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Category of a task
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategorySchool   Category = "School"
	CategoryOther    Category = "Other"
)

// Categories lists the selectable categories in display order
var Categories = []Category{CategoryWork, CategoryPersonal, CategorySchool, CategoryOther}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategorySchool, CategoryOther:
		return true
	}
	return false
}

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Task represents a single task
type Task struct {
	ID             string     `json:"id" yaml:"id" toml:"id"`
	Title          string     `json:"title" yaml:"title" toml:"title"`
	Description    string     `json:"description" yaml:"description" toml:"description"`
	Priority       Priority   `json:"priority" yaml:"priority" toml:"priority"`
	Category       Category   `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty" toml:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	ModifiedAt     time.Time  `json:"modifiedAt" yaml:"modifiedAt" toml:"modifiedAt"`
	Completed      bool       `json:"completed" yaml:"completed" toml:"completed"`
	CompletedAt    *time.Time `json:"completedAt" yaml:"completedAt" toml:"completedAt,omitempty"`
	NotificationID *string    `json:"notificationId" yaml:"notificationId" toml:"notificationId,omitempty"`
}

// Touched returns the last time the task was changed, falling back to
// creation time for records that never carried a modification stamp.
func (t Task) Touched() time.Time {
	if !t.ModifiedAt.IsZero() {
		return t.ModifiedAt
	}
	return t.CreatedAt
}

// Edited reports whether the task was modified after it was created
func (t Task) Edited() bool {
	return !t.ModifiedAt.IsZero() && !t.ModifiedAt.Equal(t.CreatedAt)
}

// Draft holds user-entered field values before validation
type Draft struct {
	Title       string
	Description string
	Priority    Priority
	Category    Category
	DueDate     *time.Time
}

// DraftFrom copies the editable fields of a task into a draft
func DraftFrom(t Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
	}
}

// Optional is a patch field that may be set to a value or to null
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional set to v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional set to null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Patch is a partial task record. Nil pointers and unset optionals are left
// untouched by the store.
type Patch struct {
	Title          *string
	Description    *string
	Priority       *Priority
	Category       *Category
	DueDate        *time.Time
	ModifiedAt     *time.Time
	Completed      *bool
	CompletedAt    Optional[time.Time]
	NotificationID Optional[string]
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Category == nil && p.DueDate == nil && p.ModifiedAt == nil &&
		p.Completed == nil && !p.CompletedAt.Set && !p.NotificationID.Set
}

// ReminderContent is what a fired reminder shows
type ReminderContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Reminder is a scheduled local alert
type Reminder struct {
	Handle    string
	Content   ReminderContent
	FireAt    time.Time
	Fired     bool
	CreatedAt time.Time
}
