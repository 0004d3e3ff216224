package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const taskColumns = `id, title, due_at, completed, created_at, updated_at`

// Timestamps are stored as UTC RFC3339Nano text.
const timeLayout = time.RFC3339Nano

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a sqlite-backed store over an already migrated database.
// Closing the repository closes db.
func NewTaskRepository(db *sql.DB) repository.Store {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}

	const query = `
	INSERT INTO tasks (title, due_at, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		formatTimePtr(task.DueAt),
		task.Completed,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	task.ID = id
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now()
	}

	const query = `
	UPDATE tasks
	SET title = ?, due_at = ?, updated_at = ?
	WHERE id = ?
	RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query,
		task.Title,
		formatTimePtr(task.DueAt),
		formatTime(task.UpdatedAt),
		task.ID,
	))
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	if at.IsZero() {
		at = time.Now()
	}

	const query = `
	UPDATE tasks
	SET completed = 1,
		updated_at = CASE WHEN completed = 1 THEN updated_at ELSE ? END
	WHERE id = ?
	RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, formatTime(at), id))
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *taskRepository) Close() error {
	return r.db.Close()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task      domain.Task
		due       sql.NullString
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&task.ID, &task.Title, &due, &task.Completed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	var err error
	if task.DueAt, err = parseTimePtr(due); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
