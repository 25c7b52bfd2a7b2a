package memory

import (
	"context"
	"testing"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTaskStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	task, err := store.InsertTask(ctx, "Explain gravity", strPtr("gpt-4"), strPtr("openai"), 5)
	require.NoError(t, err)

	assert.Equal(t, int32(1), task.ID)
	assert.Equal(t, domain.Pending, task.Status)
	assert.Nil(t, task.Result)

	got, err := store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Explain gravity", got.Prompt)
	assert.Equal(t, "gpt-4", *got.Model)
	assert.Equal(t, "openai", *got.Provider)
	assert.Equal(t, int32(5), got.Priority)
}

func TestTaskStore_GetMissing(t *testing.T) {
	store := NewTaskStore()

	_, err := store.GetTaskByID(context.Background(), 999999)
	assert.ErrorIs(t, err, errval.ErrNotFound)
}

func TestTaskStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	for i := 0; i < 5; i++ {
		_, err := store.InsertTask(ctx, "prompt", nil, nil, 1)
		require.NoError(t, err)
	}

	all, err := store.ListTasks(ctx, 0, 5)
	require.NoError(t, err)
	require.Len(t, all, 5)

	// Newest first.
	assert.Equal(t, int32(5), all[0].ID)
	assert.Equal(t, int32(1), all[4].ID)

	// Concatenated pages match the full listing with no duplicate ids.
	pageOne, err := store.ListTasks(ctx, 0, 2)
	require.NoError(t, err)
	pageTwo, err := store.ListTasks(ctx, 2, 3)
	require.NoError(t, err)

	combined := append(pageOne, pageTwo...)
	require.Len(t, combined, 5)
	for i, task := range combined {
		assert.Equal(t, all[i].ID, task.ID)
	}

	empty, err := store.ListTasks(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskStore_StatusGuards(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	task, err := store.InsertTask(ctx, "prompt", nil, nil, 1)
	require.NoError(t, err)

	require.NoError(t, store.SetTaskStatus(ctx, task.ID, domain.Pending, domain.Processing))

	// The guard refuses a transition whose precondition no longer holds.
	err = store.SetTaskStatus(ctx, task.ID, domain.Pending, domain.Processing)
	assert.ErrorIs(t, err, errval.ErrStatusConflict)

	require.NoError(t, store.SetTaskResult(ctx, task.ID, domain.Processing, domain.Completed, "done"))

	got, err := store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Completed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "done", *got.Result)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	err = store.SetTaskStatus(ctx, 424242, domain.Pending, domain.Processing)
	assert.ErrorIs(t, err, errval.ErrNotFound)
}

func TestTaskStore_DeleteTask(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	task, err := store.InsertTask(ctx, "prompt", nil, nil, 1)
	require.NoError(t, err)

	require.NoError(t, store.DeleteTask(ctx, task.ID))
	_, err = store.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, errval.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTask(ctx, task.ID), errval.ErrNotFound)
}

func TestTaskStore_Aggregates(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	t1, _ := store.InsertTask(ctx, "a", strPtr("gpt-4"), strPtr("openai"), 1)
	t2, _ := store.InsertTask(ctx, "b", strPtr("gpt-4"), strPtr("openai"), 1)
	_, _ = store.InsertTask(ctx, "c", strPtr("deepseek-chat"), strPtr("deepseek"), 1)

	require.NoError(t, store.SetTaskStatus(ctx, t1.ID, domain.Pending, domain.Processing))
	require.NoError(t, store.SetTaskResult(ctx, t1.ID, domain.Processing, domain.Completed, "ok"))
	require.NoError(t, store.SetTaskStatus(ctx, t2.ID, domain.Pending, domain.Processing))
	require.NoError(t, store.SetTaskResult(ctx, t2.ID, domain.Processing, domain.Failed, "boom"))

	total, err := store.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	counts, err := store.CountTasksByStatus(ctx)
	require.NoError(t, err)
	assert.Contains(t, counts, domain.StatusCount{Status: domain.Pending, Count: 1})
	assert.Contains(t, counts, domain.StatusCount{Status: domain.Completed, Count: 1})
	assert.Contains(t, counts, domain.StatusCount{Status: domain.Failed, Count: 1})

	stats, err := store.ModelUsageStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, domain.ModelUsage{Model: "deepseek-chat", TotalTasks: 1, CompletedTasks: 0}, stats[0])
	assert.Equal(t, domain.ModelUsage{Model: "gpt-4", TotalTasks: 2, CompletedTasks: 1}, stats[1])

	avg, err := store.AverageProcessingSeconds(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, avg, 0.0)
}
