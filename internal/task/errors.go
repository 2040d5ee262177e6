package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Field names a draft field that failed validation.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPriority    Field = "priority"
	FieldCategory    Field = "category"
	FieldDueDate     Field = "dueDate"
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[Field(k)])
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// Has reports whether f failed validation.
func (e *ValidationError) Has(f Field) bool {
	_, ok := e.Fields[f]
	return ok
}

// Message returns the message for f, or "" when f is valid.
func (e *ValidationError) Message(f Field) string {
	if e == nil {
		return ""
	}
	return e.Fields[f]
}

// StoreError wraps a failed store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("couldn't %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
