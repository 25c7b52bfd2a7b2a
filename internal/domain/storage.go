package domain

import "context"

type Storage interface {
	Ping(ctx context.Context) (err error)
	InsertTask(ctx context.Context, prompt string, model, provider *string, priority int32) (task *Task, err error)
	GetTaskByID(ctx context.Context, ID int32) (*Task, error)
	ListTasks(ctx context.Context, skip, limit int32) ([]*Task, error)
	ListTasksByStatus(ctx context.Context, taskStatus TaskStatus, skip, limit int32) ([]*Task, error)
	GetStaleTasksByStatus(ctx context.Context, taskStatus TaskStatus, passedSeconds, limit int32) ([]*Task, error)
	// SetTaskStatus moves a task from currentStatus to newStatus. It returns
	// ErrStatusConflict when the row is no longer in currentStatus.
	SetTaskStatus(ctx context.Context, taskID int32, currentStatus, newStatus TaskStatus) (err error)
	// SetTaskResult moves a task to a terminal status and writes its result in
	// the same statement.
	SetTaskResult(ctx context.Context, taskID int32, currentStatus, newStatus TaskStatus, result string) (err error)
	DeleteTask(ctx context.Context, taskID int32) (err error)
	CountTasks(ctx context.Context) (int64, error)
	CountTasksByStatus(ctx context.Context) ([]StatusCount, error)
	AverageProcessingSeconds(ctx context.Context) (float64, error)
	ModelUsageStats(ctx context.Context) ([]ModelUsage, error)
}
