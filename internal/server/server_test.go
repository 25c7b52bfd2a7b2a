package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
	"github.com/sf7293/ai-task-runner/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	publishErr error
	published  []string
	queueNames []string
}

func (q *fakeQueue) IsHealthy() bool { return true }

func (q *fakeQueue) PublishMessage(queueName, body string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.queueNames = append(q.queueNames, queueName)
	q.published = append(q.published, body)
	return nil
}

func (q *fakeQueue) ConsumeMessages(_, _ string, _ func(string)) error { return nil }

func (q *fakeQueue) Close() error { return nil }

func strPtr(s string) *string { return &s }

func int32Ptr(v int32) *int32 { return &v }

func TestCreateTask_InsertsPendingAndEnqueues(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	queue := &fakeQueue{}
	logic := NewServerLogic(store, queue, "ai_generation")

	task, err := logic.CreateTask(ctx, domain.RouterRequestCreateTask{
		Prompt:   "Explain gravity",
		Model:    strPtr("gpt-4"),
		Provider: strPtr("openai"),
		Priority: int32Ptr(5),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Pending, task.Status)
	assert.Nil(t, task.Result)
	assert.Equal(t, int32(5), task.Priority)

	require.Len(t, queue.published, 1)
	assert.Equal(t, []string{"ai_generation"}, queue.queueNames)

	var job domain.GenerationJob
	require.NoError(t, json.Unmarshal([]byte(queue.published[0]), &job))
	assert.Equal(t, task.ID, job.TaskID)
	assert.Equal(t, "Explain gravity", job.Prompt)
	assert.Equal(t, "gpt-4", job.Model)
	assert.Equal(t, "openai", job.Provider)
	assert.NotEmpty(t, job.JobID)
}

func TestCreateTask_DefaultsPriority(t *testing.T) {
	logic := NewServerLogic(memory.NewTaskStore(), &fakeQueue{}, "ai_generation")

	task, err := logic.CreateTask(context.Background(), domain.RouterRequestCreateTask{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(domain.DefaultPriority), task.Priority)
	assert.Nil(t, task.Model)
	assert.Nil(t, task.Provider)
}

func TestCreateTask_EnqueueFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	queue := &fakeQueue{publishErr: errors.New("broker unreachable")}
	logic := NewServerLogic(store, queue, "ai_generation")

	_, err := logic.CreateTask(ctx, domain.RouterRequestCreateTask{Prompt: "hi"})
	assert.ErrorIs(t, err, errval.ErrEnqueueFailed)

	// The row exists but in a distinguishable terminal state, not a
	// silently stuck PENDING.
	got, err := store.GetTaskByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.QueueFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Contains(t, *got.Result, "broker unreachable")
}

func TestGetTask(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	logic := NewServerLogic(store, &fakeQueue{}, "ai_generation")

	created, err := logic.CreateTask(ctx, domain.RouterRequestCreateTask{Prompt: "hi"})
	require.NoError(t, err)

	got, err := logic.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Prompt, got.Prompt)

	_, err = logic.GetTask(ctx, 999999)
	assert.ErrorIs(t, err, errval.ErrNotFound)
}

func TestListTasks_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	logic := NewServerLogic(store, &fakeQueue{}, "ai_generation")

	for i := 0; i < 3; i++ {
		_, err := logic.CreateTask(ctx, domain.RouterRequestCreateTask{Prompt: "hi"})
		require.NoError(t, err)
	}

	tasks, err := logic.ListTasks(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, int32(3), tasks[0].ID)
	assert.Equal(t, int32(1), tasks[2].ID)
}
