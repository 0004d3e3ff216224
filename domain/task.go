package domain

import (
	"strings"
	"time"
)

// State is the lifecycle position of a task. The only transition is open -> closed.
type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
)

// Task represents a single to-do item.
type Task struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTask builds an open task, rejecting an empty title.
func NewTask(title string, dueAt *time.Time) (*Task, error) {
	t := &Task{Title: title, DueAt: dueAt}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// IsOverdue reports whether the due date is strictly before now.
// Completion is not considered.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.DueAt == nil {
		return false
	}
	return t.DueAt.Before(now)
}

// Close marks the task completed and reports whether anything changed.
func (t *Task) Close(at time.Time) bool {
	if t == nil || t.Completed {
		return false
	}
	t.Completed = true
	t.UpdatedAt = at
	return true
}

func (t *Task) State() State {
	if t != nil && t.Completed {
		return StateClosed
	}
	return StateOpen
}

// Touch stamps the modification time, initialising CreatedAt on first use.
func (t *Task) Touch(now time.Time) {
	if t == nil {
		return
	}
	t.UpdatedAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}
