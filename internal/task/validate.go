package task

import (
	"strings"
	"unicode/utf8"

	"github.com/tgienger/taskmate/internal/models"
)

// Field limits.
const (
	TitleLimit       = 50
	DescriptionLimit = 200
)

// Validate normalizes a draft and checks every field, reporting all problems
// at once. Category and due date are only required from schema v2 on.
func Validate(d models.Draft, schema int) (models.Draft, *ValidationError) {
	d.Title = strings.Join(strings.Fields(d.Title), " ")
	d.Description = strings.TrimSpace(d.Description)

	errs := map[Field]string{}

	switch {
	case d.Title == "":
		errs[FieldTitle] = "Title is required"
	case utf8.RuneCountInString(d.Title) > TitleLimit:
		errs[FieldTitle] = "Title must be at most 50 characters"
	}

	if utf8.RuneCountInString(d.Description) > DescriptionLimit {
		errs[FieldDescription] = "Description must be at most 200 characters"
	}

	if !d.Priority.Valid() {
		errs[FieldPriority] = "Priority required"
	}

	if schema >= models.SchemaV2 {
		if !d.Category.Valid() {
			errs[FieldCategory] = "Category required"
		}
		if d.DueDate == nil || d.DueDate.IsZero() {
			errs[FieldDueDate] = "Due date required"
		}
	}

	if len(errs) > 0 {
		return d, &ValidationError{Fields: errs}
	}
	return d, nil
}
