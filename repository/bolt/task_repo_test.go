package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/repotest"
)

func TestTaskRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		store, err := Open(filepath.Join(t.TempDir(), "todo.bolt"), "")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestTaskRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todo.bolt")
	ctx := context.Background()

	store, err := Open(path, "tasks")
	require.NoError(t, err)
	first, err := store.Create(ctx, &domain.Task{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path, "tasks")
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)

	second, err := store.Create(ctx, &domain.Task{Title: "next"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestItob_PreservesOrder(t *testing.T) {
	assert.Less(t, string(itob(9)), string(itob(10)))
	assert.Less(t, string(itob(255)), string(itob(256)))
}
