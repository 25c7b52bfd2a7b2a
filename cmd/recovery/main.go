package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/postgres"
	"github.com/sf7293/ai-task-runner/internal/rabbitmq"
)

// Usage: recovery <status> <past_seconds> <limit>
//
// Replays stale tasks back onto the generation queue. PENDING tasks are
// assumed to have lost their queue message, QUEUE_FAILED tasks never had one
// and are reset to PENDING before being replayed.
func main() {
	cfg := configs.InitConfig()
	args := os.Args
	if len(args) < 4 {
		log.Fatal("Insufficient arguments are provided in calling the command")
		return
	}

	taskStatus := domain.TaskStatus(args[1])
	if taskStatus != domain.Pending && taskStatus != domain.QueueFailed {
		slog.Error("only PENDING and QUEUE_FAILED tasks can be re-queued", "provided_task_status", taskStatus)
		return
	}

	// The query finds tasks with the given status whose updated_at has not been
	// changed for the past X seconds (their updated_at <= now - pastSeconds)
	pastSecondsStr := args[2]
	pastSeconds, err := strconv.ParseInt(pastSecondsStr, 10, 32)
	if err != nil {
		log.Fatalf("Invalid input is given for the pastSeconds arg, it must be an integer, provided: %s", pastSecondsStr)
		return
	}

	// Maximum number of tasks to be fetched by the query
	limitStr := args[3]
	limit, err := strconv.ParseInt(limitStr, 10, 32)
	if err != nil {
		log.Fatalf("Invalid input is given for the limit arg, it must be an integer, provided: %s", limitStr)
		return
	}

	ctx := context.Background()
	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("Postgres connection has been initialized successfully")

	mainQueueNames := cfg.RabbitMQ.GetMainQueueNames()
	rabbitClient, err := rabbitmq.NewRabbitMQClient(ctx, cfg.RabbitMQ.ToRabbitConnectionUri(), mainQueueNames)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = rabbitClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing RabbitMQ connection", "error", err.Error())
		}
	}()
	slog.Info("RabbitMQ has been initialized successfully")

	slog.Info("Fetching stale tasks", "task_status", taskStatus, "past_seconds_threshold", pastSeconds, "limit", limit)
	staleTasks, err := storage.GetStaleTasksByStatus(ctx, taskStatus, int32(pastSeconds), int32(limit))
	if err != nil {
		slog.Error("Error occurred while fetching stale tasks", "error", err.Error())
		return
	}
	slog.Info("Stale tasks are fetched", "task_status", taskStatus, "fetched_items_count", len(staleTasks))

	requeuedCount := 0
	for _, task := range staleTasks {
		// A QUEUE_FAILED task must be PENDING again so the worker picks it up.
		if task.Status == domain.QueueFailed {
			err = storage.SetTaskStatus(ctx, task.ID, domain.QueueFailed, domain.Pending)
			if err != nil {
				slog.Error("Error occurred while resetting QUEUE_FAILED task to PENDING", "task_id", task.ID, "error", err.Error())
				continue
			}
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
			// Just logging here, the task stays PENDING and the next recovery
			// run picks it up again
			slog.Error("There was an error in marshalling the generation job", "task_id", task.ID, "error", err.Error())
			continue
		}

		err = rabbitClient.PublishMessage(cfg.RabbitMQ.AIJobsQueueName, string(marshalledJob))
		if err != nil {
			slog.Error("Error occurred while queuing generation job to jobs queue", "task_id", task.ID, "error", err.Error())
			continue
		}
		slog.Info("Task is re-queued successfully", "task_id", task.ID, "job_id", job.JobID)
		requeuedCount++
	}

	slog.Info("Stale tasks have been re-queued", "stale_tasks_count", len(staleTasks), "successful_requeued_count", requeuedCount)
}
