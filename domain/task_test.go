package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestNewTask(t *testing.T) {
	due := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name    string
		title   string
		dueAt   *time.Time
		wantErr error
	}{
		{name: "with due date", title: "task1", dueAt: &due},
		{name: "without due date", title: "task2"},
		{name: "empty title", title: "", wantErr: ErrTitleRequired},
		{name: "whitespace title", title: "   ", wantErr: ErrTitleRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.title, tt.dueAt)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.True(t, IsValidation(err))
				assert.Nil(t, task)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, task.Title)
			assert.Equal(t, tt.dueAt, task.DueAt)
			assert.False(t, task.Completed)
			assert.Equal(t, StateOpen, task.State())
		})
	}
}

func TestTask_IsOverdue(t *testing.T) {
	due := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		task     Task
		now      time.Time
		expected bool
	}{
		{
			name:     "due later the same day",
			task:     Task{Title: "task1", DueAt: &due},
			now:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "due date passed",
			task:     Task{Title: "task1", DueAt: &due},
			now:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "now equals due date",
			task:     Task{Title: "task1", DueAt: &due},
			now:      due,
			expected: false,
		},
		{
			name:     "no due date",
			task:     Task{Title: "task1"},
			now:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "no due date far future",
			task:     Task{Title: "task1"},
			now:      time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "completed task with past due date",
			task:     Task{Title: "task1", DueAt: &due, Completed: true},
			now:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "due date in another zone",
			task:     Task{Title: "task1", DueAt: ptr(time.Date(2024, 7, 1, 8, 0, 0, 0, time.FixedZone("JST", 9*3600)))},
			now:      time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.IsOverdue(tt.now))
		})
	}
}

func TestTask_Close(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	closedAt := created.Add(time.Hour)

	task := &Task{ID: 1, Title: "task"}
	task.Touch(created)

	assert.True(t, task.Close(closedAt))
	assert.True(t, task.Completed)
	assert.Equal(t, StateClosed, task.State())
	assert.Equal(t, closedAt, task.UpdatedAt)

	assert.False(t, task.Close(closedAt.Add(time.Hour)))
	assert.True(t, task.Completed)
	assert.Equal(t, closedAt, task.UpdatedAt)
}

func TestTask_Touch(t *testing.T) {
	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	task := &Task{Title: "task"}
	task.Touch(first)
	assert.Equal(t, first, task.CreatedAt)
	assert.Equal(t, first, task.UpdatedAt)

	task.Touch(second)
	assert.Equal(t, first, task.CreatedAt)
	assert.Equal(t, second, task.UpdatedAt)
}

func TestIsDomainError(t *testing.T) {
	wrapped := WrapError(ErrCodeInternal, "list tasks", errors.New("connection refused"))

	assert.True(t, IsNotFound(ErrTaskNotFound))
	assert.False(t, IsValidation(ErrTaskNotFound))
	assert.True(t, IsValidation(ErrTitleRequired))
	assert.True(t, IsDomainError(wrapped, ErrCodeInternal))
	assert.Equal(t, "list tasks: connection refused", wrapped.Error())
	assert.False(t, IsNotFound(errors.New("plain")))
}
