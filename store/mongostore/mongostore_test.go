package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/task-manager/domain/objectid"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// testDatabase connects to MONGO_TEST_URI and returns a throwaway database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("task_manager_test_" + objectid.New())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestUserRepository(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	repo, err := NewUserRepository(ctx, db)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &user.User{ID: objectid.New(), Name: "Ana", Email: "a@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, u))

	dup := *u
	dup.ID = objectid.New()
	assert.ErrorIs(t, repo.Create(ctx, &dup), user.ErrEmailTaken)

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.True(t, found.CreatedAt.Equal(now))

	_, err = repo.FindByID(ctx, objectid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTaskRepository(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	repo, err := NewTaskRepository(ctx, db)
	require.NoError(t, err)

	owner := objectid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		tk := &task.Task{ID: objectid.New(), Title: title, OwnerID: owner, Status: task.StatusPending, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.Create(ctx, tk))
		ids = append(ids, tk.ID)
	}

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, tk := range list {
		assert.Equal(t, ids[i], tk.ID)
	}

	other, err := repo.ListByOwner(ctx, objectid.New())
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)

	tk := list[0]
	tk.Completed = true
	tk.DueDate = &due
	tk.Description = "notes"
	require.NoError(t, repo.Update(ctx, tk))

	got, err := repo.FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "notes", got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	require.NoError(t, repo.Delete(ctx, tk.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tk.ID), task.ErrNotFound)
	_, err = repo.FindByID(ctx, tk.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}
