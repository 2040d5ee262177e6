package task

import (
	"fmt"
	"strings"
	"time"
)

// DueLayout is the short local form accepted for due dates.
const DueLayout = "2006-01-02 15:04"

// ParseDue reads a due date typed by a user: RFC 3339, or DueLayout in loc.
// An empty string means no due date.
func ParseDue(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(DueLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q (use %s or RFC 3339)", s, DueLayout)
	}
	return &t, nil
}
