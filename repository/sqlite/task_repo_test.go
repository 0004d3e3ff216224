package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/repotest"
)

func setupTestDB(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()

	db, err := sqliteInfra.Open(ctx, filepath.Join(t.TempDir(), "todo.db"), nil)
	require.NoError(t, err)
	require.NoError(t, sqliteInfra.RunMigrations(db, "", nil))

	store := NewTaskRepository(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTaskRepository(t *testing.T) {
	repotest.Run(t, setupTestDB)
}

func TestTaskRepository_MigrationsAreRepeatable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todo.db")

	db, err := sqliteInfra.Open(ctx, path, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqliteInfra.RunMigrations(db, "", nil))
	require.NoError(t, sqliteInfra.RunMigrations(db, "", nil))
}

func TestTaskRepository_PreservesInstantAcrossZones(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	due := time.Date(2024, 6, 30, 23, 59, 59, 0, time.FixedZone("JST", 9*3600))
	created, err := store.Create(ctx, &domain.Task{Title: "task1", DueAt: &due})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))
	assert.Equal(t, time.UTC, got.DueAt.Location())
}

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	ts := time.Date(2024, 7, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))
	assert.Equal(t, "2024-07-01T00:00:00Z", formatTimePtr(&ts))
}
