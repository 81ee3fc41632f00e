// Package storagetest runs the behaviour every storage.Storage backend must
// share.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cyp0633/librecur/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store from newStore in every subtest
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("Duplicate", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("InvalidInput", func(t *testing.T) { testInvalidInput(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, newStore(t)) })
}

func task(id, userID string, due time.Time) *storage.Task {
	return &storage.Task{ID: id, UserID: userID, Title: "task " + id, Due: due}
}

func testCreateAndGet(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	in := task("t1", "alice", due)
	require.NoError(t, store.CreateTask(ctx, in))
	assert.False(t, in.Created.IsZero())

	got, err := store.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "task t1", got.Title)
	assert.True(t, due.Equal(got.Due), "due %s, got %s", due, got.Due)
	assert.Equal(t, storage.DayKey(due), storage.DayKey(got.Due))

	_, err = store.GetTask(ctx, "bob", "t1")
	assert.True(t, storage.IsType(err, storage.ErrNotFound), "got %v", err)
}

func testDuplicate(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateTask(ctx, task("t1", "alice", due)))
	err := store.CreateTask(ctx, task("t1", "alice", due))
	assert.True(t, storage.IsType(err, storage.ErrAlreadyExists), "got %v", err)

	// IDs are scoped per user
	assert.NoError(t, store.CreateTask(ctx, task("t1", "bob", due)))
}

func testInvalidInput(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task *storage.Task
	}{
		{name: "Missing ID", task: task("", "alice", due)},
		{name: "Missing user", task: task("t1", "", due)},
		{name: "Missing due date", task: task("t1", "alice", time.Time{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateTask(ctx, tt.task)
			assert.True(t, storage.IsType(err, storage.ErrInvalidInput), "got %v", err)
		})
	}
}

func testList(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	day := func(d, hour int) time.Time { return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC) }

	for _, in := range []*storage.Task{
		task("c", "alice", day(5, 8)),
		task("a", "alice", day(1, 23)),
		task("b", "alice", day(3, 0)),
		task("d", "alice", day(9, 12)),
		task("x", "bob", day(3, 0)),
	} {
		require.NoError(t, store.CreateTask(ctx, in))
	}

	ids := func(tasks []*storage.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.ID
		}
		return out
	}

	all, err := store.ListTasks(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(all))

	// Bounds are whole days: the 23:00 task on the first and the 12:00 task
	// on the ninth are both inside
	start, end := day(1, 12), day(9, 0)
	ranged, err := store.ListTasks(ctx, "alice", &storage.ListOptions{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(ranged))

	start, end = day(2, 0), day(5, 0)
	ranged, err = store.ListTasks(ctx, "alice", &storage.ListOptions{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(ranged))

	openStart, err := store.ListTasks(ctx, "alice", &storage.ListOptions{End: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(openStart))

	none, err := store.ListTasks(ctx, "carol", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUpdate(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateTask(ctx, task("t1", "alice", due)))

	got, err := store.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.False(t, got.Done())

	done := time.Date(2024, 3, 1, 18, 45, 0, 0, time.UTC)
	got.Title = "renamed"
	got.Due = due.AddDate(0, 0, 7)
	got.Completed = done
	require.NoError(t, store.UpdateTask(ctx, got))

	updated, err := store.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, got.Due.Equal(updated.Due))
	assert.True(t, updated.Done())
	assert.True(t, done.Equal(updated.Completed))

	moved, err := store.ListTasks(ctx, "alice", &storage.ListOptions{Start: &got.Due, End: &got.Due})
	require.NoError(t, err)
	require.Len(t, moved, 1)

	err = store.UpdateTask(ctx, task("missing", "alice", due))
	assert.True(t, storage.IsType(err, storage.ErrNotFound), "got %v", err)

	err = store.UpdateTask(ctx, &storage.Task{ID: "t1", UserID: "alice"})
	assert.True(t, storage.IsType(err, storage.ErrInvalidInput), "got %v", err)
}

func testDelete(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	require.NoError(t, store.CreateTask(ctx, task("t1", "alice", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))

	require.NoError(t, store.DeleteTask(ctx, "alice", "t1"))

	_, err := store.GetTask(ctx, "alice", "t1")
	assert.True(t, storage.IsType(err, storage.ErrNotFound))

	err = store.DeleteTask(ctx, "alice", "t1")
	assert.True(t, storage.IsType(err, storage.ErrNotFound))
}

func testConcurrent(t *testing.T, store storage.Storage) {
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := store.CreateTask(ctx, task(id, "alice", due.AddDate(0, 0, i))); err != nil {
				errs <- err
				return
			}
			if _, err := store.ListTasks(ctx, "alice", nil); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	all, err := store.ListTasks(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
