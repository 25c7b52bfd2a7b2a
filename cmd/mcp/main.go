package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/mcp"
	"github.com/sf7293/ai-task-runner/internal/postgres"
	"github.com/sf7293/ai-task-runner/internal/rabbitmq"
	"github.com/sf7293/ai-task-runner/internal/server"
)

// The MCP server speaks the protocol on stdout, so all logging must go to
// stderr.
func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	cfg := configs.InitConfig()
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

	serverLogic := server.NewServerLogic(storage, rabbitClient, cfg.RabbitMQ.AIJobsQueueName)
	mcpServer := mcp.New(cfg.AppName, cfg.AppVersion, storage, serverLogic)

	slog.Info("MCP server is serving on stdio")
	if err := mcpServer.Run(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	slog.Info("MCP server exiting")
}
