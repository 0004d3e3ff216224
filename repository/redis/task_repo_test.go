package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/repotest"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, repository.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	store := NewTaskRepository(client, "test:")
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestTaskRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		_, store := setupTestRedis(t)
		return store
	})
}

func TestTaskRepository_KeyLayout(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	task, err := store.Create(ctx, &domain.Task{Title: "task1", DueAt: &due})
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.ID)

	assert.True(t, mr.Exists("test:task:1"))
	assert.Equal(t, "task1", mr.HGet("test:task:1", "title"))
	assert.Equal(t, "2024-07-01T00:00:00Z", mr.HGet("test:task:1", "due_at"))
	assert.Equal(t, "0", mr.HGet("test:task:1", "completed"))

	members, err := mr.ZMembers("test:tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)

	require.NoError(t, store.Delete(ctx, task.ID))
	assert.False(t, mr.Exists("test:task:1"))
}

func TestTaskRepository_ServerErrorsSurface(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.SetError("LOADING dataset in memory")

	assert.Error(t, store.Ping(context.Background()))
	_, err := store.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, domain.IsNotFound(err))
}

func TestDecodeTask_RejectsCorruptHash(t *testing.T) {
	_, err := decodeTask(map[string]string{"id": "x"})
	assert.Error(t, err)

	_, err = decodeTask(map[string]string{"id": "1", "title": "t", "created_at": "yesterday"})
	assert.Error(t, err)
}
