package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

type storage struct {
	queries *Queries
	pool    *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*storage, error) {
	var pool *pgxpool.Pool
	var err error

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	err = backoff.Retry(func() error {
		if pool, err = pgxpool.ConnectConfig(ctx, config); err != nil {
			slog.ErrorContext(ctx, "failed to connect to postgres database.. retrying...", "error", err)
			return err
		}

		if err = pool.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ping postgres database connection.. retrying...", "error", err)
			return err
		}

		return nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(3*time.Second), 5))

	if err != nil {
		return nil, err
	}

	return &storage{
		queries: New(pool),
		pool:    pool,
	}, nil
}

func (s *storage) Ping(ctx context.Context) (err error) {
	return s.pool.Ping(ctx)
}

func (s *storage) InsertTask(ctx context.Context, prompt string, model, provider *string, priority int32) (*domain.Task, error) {
	task, err := s.queries.InsertTask(ctx, InsertTaskParams{
		Prompt:   prompt,
		Model:    toText(model),
		Provider: toText(provider),
		Priority: priority,
	})
	if err != nil {
		return nil, err
	}

	return convertTask(task), nil
}

func (s *storage) GetTaskByID(ctx context.Context, ID int32) (*domain.Task, error) {
	task, err := s.queries.GetTaskByID(ctx, ID)
	if err != nil {
		if isNoRows(err) {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return convertTask(task), nil
}

func (s *storage) ListTasks(ctx context.Context, skip, limit int32) ([]*domain.Task, error) {
	tasks, err := s.queries.ListTasks(ctx, ListTasksParams{
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	return convertTasks(tasks), nil
}

func (s *storage) ListTasksByStatus(ctx context.Context, taskStatus domain.TaskStatus, skip, limit int32) ([]*domain.Task, error) {
	tasks, err := s.queries.ListTasksByStatus(ctx, ListTasksByStatusParams{
		Status: TaskStatus(taskStatus),
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	return convertTasks(tasks), nil
}

func (s *storage) GetStaleTasksByStatus(ctx context.Context, taskStatus domain.TaskStatus, passedSeconds, limit int32) ([]*domain.Task, error) {
	tasks, err := s.queries.GetStaleTasksByStatus(ctx, GetStaleTasksByStatusParams{
		Status:  TaskStatus(taskStatus),
		Column2: passedSeconds,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	return convertTasks(tasks), nil
}

func (s *storage) SetTaskStatus(ctx context.Context, taskID int32, currentStatus, newStatus domain.TaskStatus) (err error) {
	tag, err := s.queries.UpdateTaskStatus(ctx, UpdateTaskStatusParams{
		ID:       taskID,
		Status:   TaskStatus(newStatus),
		Status_2: TaskStatus(currentStatus),
	})
	if err != nil {
		return err
	}

	return s.checkGuardedUpdate(ctx, taskID, tag.RowsAffected())
}

func (s *storage) SetTaskResult(ctx context.Context, taskID int32, currentStatus, newStatus domain.TaskStatus, result string) (err error) {
	tag, err := s.queries.UpdateTaskResult(ctx, UpdateTaskResultParams{
		ID:       taskID,
		Status:   TaskStatus(newStatus),
		Result:   pgtype.Text{String: result, Status: pgtype.Present},
		Status_2: TaskStatus(currentStatus),
	})
	if err != nil {
		return err
	}

	return s.checkGuardedUpdate(ctx, taskID, tag.RowsAffected())
}

// checkGuardedUpdate tells a vanished row apart from a row whose status moved
// on since the caller last read it.
func (s *storage) checkGuardedUpdate(ctx context.Context, taskID int32, rowsAffected int64) error {
	if rowsAffected > 0 {
		return nil
	}

	_, err := s.queries.GetTaskByID(ctx, taskID)
	if err != nil {
		if isNoRows(err) {
			return errval.ErrNotFound
		}

		return err
	}

	return errval.ErrStatusConflict
}

func (s *storage) DeleteTask(ctx context.Context, taskID int32) (err error) {
	tag, err := s.queries.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return errval.ErrNotFound
	}

	return nil
}

func (s *storage) CountTasks(ctx context.Context) (int64, error) {
	return s.queries.CountTasks(ctx)
}

func (s *storage) CountTasksByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	rows, err := s.queries.CountTasksByStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := []domain.StatusCount{}
	for _, row := range rows {
		counts = append(counts, domain.StatusCount{
			Status: domain.TaskStatus(row.Status),
			Count:  row.Count,
		})
	}

	return counts, nil
}

func (s *storage) AverageProcessingSeconds(ctx context.Context) (float64, error) {
	return s.queries.AverageProcessingSeconds(ctx)
}

func (s *storage) ModelUsageStats(ctx context.Context) ([]domain.ModelUsage, error) {
	rows, err := s.queries.ModelUsageStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := []domain.ModelUsage{}
	for _, row := range rows {
		stats = append(stats, domain.ModelUsage{
			Model:          row.Model,
			TotalTasks:     row.TotalTasks,
			CompletedTasks: row.CompletedTasks,
		})
	}

	return stats, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || strings.Contains(err.Error(), "no rows")
}

func toText(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{Status: pgtype.Null}
	}

	return pgtype.Text{String: *v, Status: pgtype.Present}
}

func fromText(v pgtype.Text) *string {
	if v.Status != pgtype.Present {
		return nil
	}

	s := v.String
	return &s
}

func convertTask(task Task) *domain.Task {
	castedItem := &domain.Task{
		ID:        task.ID,
		Prompt:    task.Prompt,
		Model:     fromText(task.Model),
		Provider:  fromText(task.Provider),
		Priority:  task.Priority,
		Status:    domain.TaskStatus(task.Status),
		Result:    fromText(task.Result),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}

	return castedItem
}

func convertTasks(tasks []Task) []*domain.Task {
	castedTasks := []*domain.Task{}
	for _, item := range tasks {
		castedTask := convertTask(item)
		castedTasks = append(castedTasks, castedTask)
	}

	return castedTasks
}
