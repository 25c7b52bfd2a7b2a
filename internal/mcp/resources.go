package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sf7293/ai-task-runner/internal/domain"
)

// modelCatalogue is the static model reference served at task://models.
// Prices are USD per 1K tokens.
var modelCatalogue = map[string]any{
	"providers": map[string]any{
		"openai": map[string]any{
			"default_model": "gpt-3.5-turbo",
			"models": []map[string]any{
				{"name": "gpt-3.5-turbo", "context_window": 16385, "input_cost": 0.0005, "output_cost": 0.0015},
				{"name": "gpt-4", "context_window": 8192, "input_cost": 0.03, "output_cost": 0.06},
				{"name": "gpt-4-turbo", "context_window": 128000, "input_cost": 0.01, "output_cost": 0.03},
			},
		},
		"deepseek": map[string]any{
			"default_model": "deepseek-chat",
			"models": []map[string]any{
				{"name": "deepseek-chat", "context_window": 64000, "input_cost": 0.00014, "output_cost": 0.00028},
			},
		},
		"anthropic": map[string]any{
			"default_model": "claude-3-sonnet-20240229",
			"models": []map[string]any{
				{"name": "claude-3-sonnet-20240229", "context_window": 200000, "input_cost": 0.003, "output_cost": 0.015},
				{"name": "claude-3-opus-20240229", "context_window": 200000, "input_cost": 0.015, "output_cost": 0.075},
			},
		},
	},
	"pricing_unit": "USD per 1K tokens",
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource("task://schema", "Task Schema",
			mcp.WithResourceDescription("Field definitions, constraints and the status workflow of a task"),
			mcp.WithMIMEType("application/json"),
		), s.handleSchemaResource)

	s.mcpServer.AddResource(
		mcp.NewResource("task://statuses", "Task Statuses",
			mcp.WithResourceDescription("Live task counts per status and the status workflow"),
			mcp.WithMIMEType("application/json"),
		), s.handleStatusesResource)

	s.mcpServer.AddResource(
		mcp.NewResource("task://models", "Model Catalogue",
			mcp.WithResourceDescription("Available AI models per provider with context windows and token pricing"),
			mcp.WithMIMEType("application/json"),
		), s.handleModelsResource)

	s.mcpServer.AddResource(
		mcp.NewResource("task://stats", "Task Statistics",
			mcp.WithResourceDescription("Aggregate task statistics: counts, processing time and per-model success rates"),
			mcp.WithMIMEType("application/json"),
		), s.handleStatsResource)
}

func (s *Server) handleSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	schema := map[string]any{
		"entity": "task",
		"fields": map[string]any{
			"id":         map[string]any{"type": "integer", "description": "Server-assigned task identifier"},
			"prompt":     map[string]any{"type": "string", "required": true, "min_length": domain.MinPromptLength, "max_length": domain.MaxPromptLength},
			"model":      map[string]any{"type": "string", "required": false, "description": "Model override, defaults to the provider's default model"},
			"provider":   map[string]any{"type": "string", "required": false, "enum": domain.ProviderNames()},
			"priority":   map[string]any{"type": "integer", "required": false, "minimum": domain.MinPriority, "maximum": domain.MaxPriority, "default": domain.DefaultPriority},
			"status":     map[string]any{"type": "string", "enum": allStatuses()},
			"result":     map[string]any{"type": "string", "description": "Generated text once COMPLETED, the error message once FAILED"},
			"created_at": map[string]any{"type": "string", "format": "date-time"},
			"updated_at": map[string]any{"type": "string", "format": "date-time"},
		},
		"workflow": statusWorkflow(),
	}
	return jsonResource("task://schema", schema)
}

func (s *Server) handleStatusesResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	counts, err := s.storage.CountTasksByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting tasks by status: %w", err)
	}

	byStatus := map[string]int64{}
	for _, status := range allStatuses() {
		byStatus[string(status)] = 0
	}
	for _, row := range counts {
		byStatus[string(row.Status)] = row.Count
	}

	return jsonResource("task://statuses", map[string]any{
		"counts":   byStatus,
		"workflow": statusWorkflow(),
	})
}

func (s *Server) handleModelsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource("task://models", modelCatalogue)
}

func (s *Server) handleStatsResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	total, err := s.storage.CountTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	counts, err := s.storage.CountTasksByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting tasks by status: %w", err)
	}
	avgSeconds, err := s.storage.AverageProcessingSeconds(ctx)
	if err != nil {
		return nil, fmt.Errorf("averaging processing time: %w", err)
	}
	usage, err := s.storage.ModelUsageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting model usage: %w", err)
	}

	byStatus := map[string]int64{}
	for _, row := range counts {
		byStatus[string(row.Status)] = row.Count
	}

	models := make([]map[string]any, 0, len(usage))
	for _, row := range usage {
		successRate := 0.0
		if row.TotalTasks > 0 {
			successRate = float64(row.CompletedTasks) / float64(row.TotalTasks)
		}
		models = append(models, map[string]any{
			"model":           row.Model,
			"total_tasks":     row.TotalTasks,
			"completed_tasks": row.CompletedTasks,
			"success_rate":    successRate,
		})
	}

	return jsonResource("task://stats", map[string]any{
		"total_tasks":                total,
		"counts_by_status":           byStatus,
		"average_processing_seconds": avgSeconds,
		"models":                     models,
	})
}

func jsonResource(uri string, payload any) ([]mcp.ResourceContents, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}

func allStatuses() []domain.TaskStatus {
	return []domain.TaskStatus{domain.Pending, domain.Processing, domain.Completed, domain.Failed, domain.QueueFailed}
}

func statusWorkflow() map[string]any {
	return map[string]any{
		"PENDING":      "Queued, waiting for a worker. Moves to PROCESSING, or to QUEUE_FAILED if the broker rejected the job at creation time.",
		"PROCESSING":   "A worker holds the task and is calling the AI provider. Moves to COMPLETED or FAILED.",
		"COMPLETED":    "Terminal. The generated text is in the result field.",
		"FAILED":       "Terminal. The provider error is in the result field.",
		"QUEUE_FAILED": "Terminal. The job never reached the queue, recreate the task or replay it with the recovery command.",
	}
}
