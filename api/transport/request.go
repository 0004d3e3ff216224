package transport

import (
	"strings"
	"time"

	"github.com/fastygo/todo/domain"
)

// TaskRequest is the body accepted by create and update.
type TaskRequest struct {
	Title string  `json:"title"`
	DueAt *string `json:"due_at"`
}

// Layouts without an offset are read in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueAt parses the request's due date. Null and blank values mean no deadline.
func (r TaskRequest) ParseDueAt(loc *time.Location) (*time.Time, error) {
	if r.DueAt == nil {
		return nil, nil
	}
	return ParseTimestamp(*r.DueAt, loc)
}

// ParseTimestamp accepts RFC3339 with an offset or one of the local layouts.
func ParseTimestamp(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return &t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, domain.ErrInvalidDueAt
}
