package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const defaultBucket = "tasks"

// taskRepository keeps tasks as JSON values keyed by their big-endian id,
// so cursor order is id order.
type taskRepository struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (repository.Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &taskRepository{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		task, err = r.get(tx, id)
		return err
	})
	return task, err
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(_, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	return tasks, err
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		task.ID = int64(seq)
		return r.put(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	var stored *domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		var err error
		if stored, err = r.get(tx, task.ID); err != nil {
			return err
		}
		stored.Title = task.Title
		stored.DueAt = task.DueAt
		stored.UpdatedAt = task.UpdatedAt
		return r.put(tx, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	var stored *domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		var err error
		if stored, err = r.get(tx, id); err != nil {
			return err
		}
		if !stored.Close(at) {
			return nil
		}
		return r.put(tx, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		key := itob(id)
		if b.Get(key) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete(key)
	})
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(r.bucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

// Close closes the Bolt database.
func (r *taskRepository) Close() error {
	return r.db.Close()
}

func (r *taskRepository) get(tx *bolt.Tx, id int64) (*domain.Task, error) {
	if id <= 0 {
		return nil, domain.ErrTaskNotFound
	}
	v := tx.Bucket(r.bucket).Get(itob(id))
	if v == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(v, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) put(tx *bolt.Tx, task *domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return tx.Bucket(r.bucket).Put(itob(task.ID), payload)
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
