package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sf7293/ai-task-runner/configs"
	db2 "github.com/sf7293/ai-task-runner/db"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
	"github.com/sf7293/ai-task-runner/internal/postgres"
	"github.com/sf7293/ai-task-runner/internal/rabbitmq"
	"github.com/sf7293/ai-task-runner/internal/server"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

var postgresIsReady, rabbitIsReady bool

func main() {
	cfg := configs.InitConfig()

	d, err := iofs.New(db2.Migrations, "migrations")
	if err != nil {
		log.Fatal(err)
		return
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, cfg.Database.ToMigrationUri())
	if err != nil {
		log.Fatal(err)
		return
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(err)
		}
	}
	slog.Info("Migrations ran successfully")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerTimeOutInSeconds)*time.Second)
	defer cancel()

	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	postgresIsReady = true
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
	rabbitIsReady = true
	slog.Info("RabbitMQ has been initialized successfully")

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	router := setupHTTPServer(cfg, storage, rabbitClient, cfg.RabbitMQ.AIJobsQueueName)
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Initializing the server in a goroutine so that
	// it won't block the graceful shutdown handling below
	go func() {
		log.Printf("Starting server on port %s\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// The startup context is long expired by now, Shutdown needs its own.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerTimeOutInSeconds)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func setupHTTPServer(cfg *configs.Config, storage domain.Storage, rabbitClient domain.Queue, jobsQueueName string) *gin.Engine {
	r := gin.Default()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("validate_provider", validateProvider)
		if err != nil {
			log.Fatal("failed to bind validation rule of validate_provider")
		}
	}

	serverLogic := server.NewServerLogic(storage, rabbitClient, jobsQueueName)

	v1 := r.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"app_name":  cfg.AppName,
			"version":   cfg.AppVersion,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	tasks := v1.Group("/tasks")
	tasks.POST("", func(c *gin.Context) {
		req := domain.RouterRequestCreateTask{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		task, err := serverLogic.CreateTask(c, req)
		if err != nil {
			if errors.Is(err, errval.ErrEnqueueFailed) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "failed to enqueue generation job"})
				return
			}

			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"task": task})
	})

	tasks.GET("", func(c *gin.Context) {
		skip, err := parseListParam(c.DefaultQuery("skip", "0"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "skip must be a non-negative integer"})
			return
		}
		limit, err := parseListParam(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		taskList, err := serverLogic.ListTasks(c, skip, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"tasks": taskList, "count": len(taskList)})
	})

	tasks.GET("/:id", func(c *gin.Context) {
		idStr := c.Param("id")
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			slog.Error("Invalid id parameter, error occurred while casting id str to int", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		task, err := serverLogic.GetTask(c, int32(id))
		if err != nil {
			if errors.Is(err, errval.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
				return
			}

			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"task": task})
	})

	r.GET("/readiness", func(c *gin.Context) {
		if postgresIsReady && rabbitIsReady {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		}
	})
	r.GET("/liveness", func(c *gin.Context) {
		// Checking health of depending upon infra connections
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

		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	return r
}

func parseListParam(raw string) (int32, error) {
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, errors.New("value must be non-negative")
	}
	return int32(value), nil
}

var validateProvider validator.Func = func(fl validator.FieldLevel) bool {
	provider := fl.Field().String()
	for _, name := range domain.ProviderNames() {
		if provider == string(name) {
			return true
		}
	}
	return false
}
