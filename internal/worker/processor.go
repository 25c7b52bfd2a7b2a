// Package worker holds the queue-consumer side of the task lifecycle: one
// generation job in, one terminal task status out.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sf7293/ai-task-runner/internal/ai"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

// FailurePolicy decides what a provider failure does to the task.
type FailurePolicy string

const (
	// PolicyFail retries the provider call and then persists FAILED with the
	// provider error as the result.
	PolicyFail FailurePolicy = "fail"
	// PolicyFallback substitutes canned keyword-matched text and persists
	// COMPLETED. Development convenience, callers cannot tell the difference.
	PolicyFallback FailurePolicy = "fallback"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case PolicyFail, PolicyFallback:
		return FailurePolicy(s), nil
	default:
		return "", errors.New("invalid failure policy, it can only be fail or fallback")
	}
}

// TextService is the slice of ai.Service the processor needs.
type TextService interface {
	IsAvailable() bool
	GenerateText(ctx context.Context, prompt, providerName, model string) (string, error)
}

type Processor struct {
	storage domain.Storage
	lock    domain.DistributedLock
	text    TextService
	policy  FailurePolicy

	// LockTTL bounds how long a crashed worker keeps a task locked.
	LockTTL time.Duration
	// RetryInterval and MaxRetries shape the provider retry loop under
	// PolicyFail.
	RetryInterval time.Duration
	MaxRetries    uint64
}

func NewProcessor(storage domain.Storage, lock domain.DistributedLock, text TextService, policy FailurePolicy) *Processor {
	return &Processor{
		storage:       storage,
		lock:          lock,
		text:          text,
		policy:        policy,
		LockTTL:       5 * time.Minute,
		RetryInterval: 60 * time.Second,
		MaxRetries:    3,
	}
}

// HandleMessage processes one queue message end to end. Errors are terminal
// for the message (auto-ack consumption); anything recoverable is left to the
// recovery command, so this only logs and returns.
func (p *Processor) HandleMessage(ctx context.Context, raw string) {
	job := domain.GenerationJob{}
	err := json.Unmarshal([]byte(raw), &job)
	if err != nil {
		slog.Error("There was an error in unmarshalling the generation job", "error", err)
		return
	}
	slog.Info("Generation job is picked up from the queue", "job_id", job.JobID, "task_id", job.TaskID)

	// A task cannot be processed simultaneously by two workers.
	lockKey := "lock:" + strconv.FormatInt(int64(job.TaskID), 10)
	isLocked, err := p.lock.Lock(lockKey, p.LockTTL)
	if err != nil {
		slog.Error("Error occurred while locking the key for task", "lock_key", lockKey, "error", err.Error())
		return
	}
	if !isLocked {
		slog.Error("Concurrent processing detected for the task, ignoring this delivery...", "task_id", job.TaskID)
		return
	}
	defer func() {
		err = p.lock.Unlock(lockKey)
		if err != nil {
			slog.Error("Error while unlocking locked key", "lock_key", lockKey, "err", err.Error())
		}
	}()

	task, err := p.storage.GetTaskByID(ctx, job.TaskID)
	if err != nil {
		slog.Error("Error occurred while fetching task of the job", "task_id", job.TaskID, "error", err.Error())
		return
	}
	if task.Status != domain.Pending {
		slog.Error("Task is not PENDING anymore, ignoring the job...", "task_id", task.ID, "task_status", task.Status)
		return
	}

	// Callers can observe "in flight" before any provider is contacted.
	err = p.storage.SetTaskStatus(ctx, task.ID, domain.Pending, domain.Processing)
	if err != nil {
		slog.Error("There was an error in updating task status to PROCESSING", "error", err, "task_id", task.ID)
		return
	}
	slog.Info("Task state is changed from 'PENDING' to 'PROCESSING'", "task_id", task.ID)

	if !p.text.IsAvailable() {
		p.finishTask(ctx, task.ID, domain.Failed, "no provider available, please configure an AI provider API key")
		return
	}

	text, err := p.generate(ctx, job)
	if err != nil {
		if p.policy == PolicyFallback && !errors.Is(err, errval.ErrProviderNotFound) {
			slog.Warn("Provider call failed, substituting fallback text", "task_id", task.ID, "error", err.Error())
			p.finishTask(ctx, task.ID, domain.Completed, ai.FallbackText(job.Prompt))
			return
		}

		slog.Error("Provider call failed for the task", "task_id", task.ID, "error", err.Error())
		p.finishTask(ctx, task.ID, domain.Failed, err.Error())
		return
	}

	p.finishTask(ctx, task.ID, domain.Completed, text)
	slog.Info("Generation job has been successfully finished", "job_id", job.JobID, "task_id", task.ID)
}

func (p *Processor) generate(ctx context.Context, job domain.GenerationJob) (string, error) {
	var text string
	operation := func() error {
		result, err := p.text.GenerateText(ctx, job.Prompt, job.Provider, job.Model)
		if err != nil {
			// A misnamed provider will not heal across retries.
			if errors.Is(err, errval.ErrProviderNotFound) || errors.Is(err, errval.ErrNoProvider) {
				return backoff.Permanent(err)
			}
			return err
		}

		text = result
		return nil
	}

	if p.policy == PolicyFallback {
		// Single attempt, the fallback text is the retry.
		err := operation()
		return text, err
	}

	// The retry loop must stop once the job deadline passes, the remaining
	// attempts would run against a dead context anyway.
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.RetryInterval), p.MaxRetries), ctx)
	err := backoff.Retry(operation, b)
	return text, err
}

func (p *Processor) finishTask(ctx context.Context, taskID int32, status domain.TaskStatus, result string) {
	// The terminal write must survive the job deadline, a task stranded in
	// PROCESSING is unreachable for the recovery command.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := p.storage.SetTaskResult(writeCtx, taskID, domain.Processing, status, result)
	if err != nil {
		slog.Error("There was an error in updating task to its terminal status", "error", err, "task_id", taskID, "status", status)
		return
	}
	slog.Info("Task state is changed from 'PROCESSING' to its terminal status", "task_id", taskID, "status", status)
}
