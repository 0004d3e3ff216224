package repository

import (
	"context"
	"time"

	"github.com/fastygo/todo/domain"
)

// TaskRepository persists tasks. Every method is a single atomic store operation.
type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update overwrites title and due date of an existing task and returns the stored row.
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Complete marks a task completed. Completing a completed task is not an error.
	Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Store is a TaskRepository backed by an external resource that can be probed and released.
type Store interface {
	TaskRepository
	Ping(ctx context.Context) error
	Close() error
}
