package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/ai"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/postgres"
	"github.com/sf7293/ai-task-runner/internal/rabbitmq"
	"github.com/sf7293/ai-task-runner/internal/redis"
	"github.com/sf7293/ai-task-runner/internal/worker"
)

var postgresIsReady, rabbitIsReady, redisIsReady bool

func main() {
	cfg := configs.InitConfig()

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	failurePolicy, err := worker.ParseFailurePolicy(cfg.WorkerFailurePolicy)
	if err != nil {
		log.Fatal(err)
		return
	}

	// The context is not bound to a timeout here, each provider call carries
	// its own 60 second timeout and the consumer runs until a signal arrives.
	ctx := context.Background()

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
	rabbitIsReady = true
	slog.Info("RabbitMQ connection has been initialized successfully")

	redisClient, err := redis.NewClient(ctx, cfg.RedisConfig.ToRedisConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = redisClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing Redis connection", "error", err.Error())
		}
	}()
	redisIsReady = true
	slog.Info("Redis connection has been initialized successfully")

	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	postgresIsReady = true
	slog.Info("Postgres connection has been initialized successfully")

	textService := ai.NewService(cfg.AI)
	if !textService.IsAvailable() {
		slog.Warn("No AI provider is configured, all picked up tasks will be marked as FAILED")
	} else {
		slog.Info("AI providers are configured", "providers", textService.AvailableProviders())
	}

	processor := worker.NewProcessor(storage, redisClient, textService, failurePolicy)
	handlerFunc := func(input string) {
		jobCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.WorkerTimeOutInSeconds)*time.Second)
		defer cancel()
		processor.HandleMessage(jobCtx, input)
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	queueName := cfg.RabbitMQ.AIJobsQueueName
	// The consumer name must be unique for each worker
	consumerName := "ai-worker:" + uuid.NewString()
	slog.Info("Creating consumer for RabbitMQ", "queueName", queueName, "consumer_name", consumerName)
	err = rabbitClient.ConsumeMessages(consumerName, queueName, handlerFunc)
	if err != nil {
		log.Fatalf("Failed to start consuming messages: %v", err)
	}
	slog.Info("Consumer is created successfully", "queueName", queueName, "consumer_name", consumerName)

	// Running HTTP Server in order to have liveness and readiness HTTP APIs
	go setUpHealthCheckerAPIs(ctx, cfg, storage, rabbitClient, redisClient)

	slog.Info("Worker is running. To exit press CTRL+C", "consumer_name", consumerName)
	<-sigChan // Wait for interrupt signal
	slog.Info("Worker is shutting down...", "consumer_name", consumerName)
}

func setUpHealthCheckerAPIs(ctx context.Context, cfg *configs.Config, storage domain.Storage, rabbitClient *rabbitmq.RabbitMQClient, redisClient *redis.Client) {
	r := gin.Default()
	r.GET("/readiness", func(c *gin.Context) {
		if postgresIsReady && rabbitIsReady && redisIsReady {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		}
	})
	r.GET("/liveness", func(c *gin.Context) {
		err := storage.Ping(c)
		if err != nil {
			slog.Error("Postgresql seem not to be pingable in liveness API", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		if !rabbitClient.IsHealthy() {
			slog.Error("Rabbit is not healthy")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		err = redisClient.Ping(ctx)
		if err != nil {
			slog.Error("Redis seem not to be pingable in liveness API", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Starting health checker server on port %s\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down health checker server...")
}
