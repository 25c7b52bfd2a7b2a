package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

type ServerLogic struct {
	storage       domain.Storage
	queueClient   domain.Queue
	jobsQueueName string
}

func NewServerLogic(storage domain.Storage, queueClient domain.Queue, jobsQueueName string) *ServerLogic {
	return &ServerLogic{
		storage:       storage,
		queueClient:   queueClient,
		jobsQueueName: jobsQueueName,
	}
}

// CreateTask inserts a PENDING row and publishes its generation job. A failed
// publish is not swallowed: the task is moved to QUEUE_FAILED and the caller
// gets an error, so no task can silently sit in PENDING with no job behind it.
func (s *ServerLogic) CreateTask(ctx context.Context, req domain.RouterRequestCreateTask) (*domain.Task, error) {
	priority := int32(domain.DefaultPriority)
	if req.Priority != nil {
		priority = *req.Priority
	}

	task, err := s.storage.InsertTask(ctx, req.Prompt, req.Model, req.Provider, priority)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.InsertTask", "error", err)
		return nil, errval.ErrInternal
	}

	job := domain.GenerationJob{
		JobID:  uuid.NewString(),
		TaskID: task.ID,
		Prompt: task.Prompt,
	}
	if task.Model != nil {
		job.Model = *task.Model
	}
	if task.Provider != nil {
		job.Provider = *task.Provider
	}

	marshalledJob, err := json.Marshal(job)
	if err != nil {
		slog.Error("There was an error in marshalling generation job", "error", err.Error(), "task_id", task.ID)
		return s.markQueueFailed(ctx, task, err.Error())
	}

	err = s.queueClient.PublishMessage(s.jobsQueueName, string(marshalledJob))
	if err != nil {
		slog.Error("Error occurred while publishing generation job to jobs queue", "error", err.Error(), "task_id", task.ID)
		return s.markQueueFailed(ctx, task, err.Error())
	}

	slog.Info("Task created and its generation job is queued", "task_id", task.ID, "job_id", job.JobID)
	return task, nil
}

func (s *ServerLogic) markQueueFailed(ctx context.Context, task *domain.Task, reason string) (*domain.Task, error) {
	err := s.storage.SetTaskResult(ctx, task.ID, domain.Pending, domain.QueueFailed, "failed to enqueue generation job: "+reason)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while marking task as QUEUE_FAILED", "error", err, "task_id", task.ID)
	}

	return nil, errval.ErrEnqueueFailed
}

func (s *ServerLogic) GetTask(ctx context.Context, taskID int32) (*domain.Task, error) {
	task, err := s.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		if err == errval.ErrNotFound {
			slog.Info("task not found with the given id", "id", taskID)
			return nil, err
		}

		slog.ErrorContext(ctx, "error occurred while calling storage.GetTaskByID", "error", err)
		return nil, errval.ErrInternal
	}

	return task, nil
}

func (s *ServerLogic) ListTasks(ctx context.Context, skip, limit int32) ([]*domain.Task, error) {
	tasks, err := s.storage.ListTasks(ctx, skip, limit)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.ListTasks", "error", err)
		return nil, errval.ErrInternal
	}

	return tasks, nil
}
