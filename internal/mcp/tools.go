package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

const (
	listTasksDefaultLimit = 10
	listTasksMaxLimit     = 100
	listPromptPreviewLen  = 100
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("create_task",
			mcp.WithDescription("Create a new AI text-generation task. The task is queued and processed asynchronously, poll get_task_status for progress."),
			mcp.WithString("prompt",
				mcp.Description("The text prompt to send to the AI provider (1-1000 characters)"),
				mcp.Required(),
			),
			mcp.WithString("model",
				mcp.Description("Model name override (e.g. 'gpt-4'). Defaults to the provider's default model."),
			),
			mcp.WithString("provider",
				mcp.Description("AI provider: 'openai', 'deepseek', or 'anthropic'. Defaults to the first configured provider."),
			),
			mcp.WithNumber("priority",
				mcp.Description("Task priority from 1 to 10 (default: 1)"),
			),
		), s.handleCreateTask)

	s.mcpServer.AddTool(
		mcp.NewTool("get_task_status",
			mcp.WithDescription("Get the current status of a task by its ID."),
			mcp.WithNumber("task_id",
				mcp.Description("The task identifier returned by create_task"),
				mcp.Required(),
			),
		), s.handleGetTaskStatus)

	s.mcpServer.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List recent tasks, newest first. Prompts are truncated to 100 characters, use get_task_result for full results."),
			mcp.WithString("status",
				mcp.Description("Filter by status: PENDING, PROCESSING, COMPLETED, FAILED or QUEUE_FAILED (optional)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of tasks to return (default: 10, max: 100)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Number of tasks to skip (default: 0)"),
			),
		), s.handleListTasks)

	s.mcpServer.AddTool(
		mcp.NewTool("get_task_result",
			mcp.WithDescription("Get the generated text of a completed task."),
			mcp.WithNumber("task_id",
				mcp.Description("The task identifier returned by create_task"),
				mcp.Required(),
			),
		), s.handleGetTaskResult)
}

func (s *Server) handleCreateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return errorResult(CodeMissingParameter, "prompt is required")
	}
	if len(prompt) < domain.MinPromptLength || len(prompt) > domain.MaxPromptLength {
		return errorResult(CodeValidationError, fmt.Sprintf("prompt must be between %d and %d characters", domain.MinPromptLength, domain.MaxPromptLength))
	}

	createReq := domain.RouterRequestCreateTask{Prompt: prompt}
	if model := req.GetString("model", ""); model != "" {
		createReq.Model = &model
	}
	if provider := req.GetString("provider", ""); provider != "" {
		if !isKnownProvider(provider) {
			return errorResult(CodeInvalidParameter, fmt.Sprintf("unknown provider %q, expected one of: openai, deepseek, anthropic", provider))
		}
		createReq.Provider = &provider
	}
	priority := int32(req.GetInt("priority", domain.DefaultPriority))
	if priority < domain.MinPriority || priority > domain.MaxPriority {
		return errorResult(CodeInvalidParameter, fmt.Sprintf("priority must be between %d and %d", domain.MinPriority, domain.MaxPriority))
	}
	createReq.Priority = &priority

	task, err := s.logic.CreateTask(ctx, createReq)
	if err != nil {
		return errorResult(CodeCreationError, err.Error())
	}

	return successResult(map[string]any{
		"task_id": task.ID,
		"status":  task.Status,
		"message": "Task created and queued for processing",
	})
}

func (s *Server) handleGetTaskStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := req.RequireInt("task_id")
	if err != nil {
		return errorResult(CodeMissingParameter, "task_id is required and must be a number")
	}

	task, err := s.logic.GetTask(ctx, int32(taskID))
	if err != nil {
		if errors.Is(err, errval.ErrNotFound) {
			return errorResult(CodeTaskNotFound, fmt.Sprintf("task %d does not exist", taskID))
		}
		return errorResult(CodeQueryError, err.Error())
	}

	view := map[string]any{
		"id":         task.ID,
		"prompt":     task.Prompt,
		"status":     task.Status,
		"model":      fromOptional(task.Model),
		"provider":   fromOptional(task.Provider),
		"priority":   task.Priority,
		"has_result": task.Result != nil,
		"created_at": task.CreatedAt.Format(time.RFC3339),
		"updated_at": task.UpdatedAt.Format(time.RFC3339),
	}
	// The generated text is only exposed once the task has finished.
	if task.Status == domain.Completed && task.Result != nil {
		view["result"] = *task.Result
	}

	return successResult(map[string]any{"task": view})
}

func (s *Server) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int32(req.GetInt("limit", listTasksDefaultLimit))
	if limit < 1 {
		return errorResult(CodeInvalidParameter, "limit must be a positive number")
	}
	if limit > listTasksMaxLimit {
		limit = listTasksMaxLimit
	}
	offset := int32(req.GetInt("offset", 0))
	if offset < 0 {
		return errorResult(CodeInvalidParameter, "offset must not be negative")
	}

	var tasks []*domain.Task
	var err error
	if status := req.GetString("status", ""); status != "" {
		taskStatus, ok := parseStatus(status)
		if !ok {
			return errorResult(CodeInvalidParameter, fmt.Sprintf("unknown status %q", status))
		}
		tasks, err = s.storage.ListTasksByStatus(ctx, taskStatus, offset, limit)
	} else {
		tasks, err = s.logic.ListTasks(ctx, offset, limit)
	}
	if err != nil {
		return errorResult(CodeQueryError, err.Error())
	}

	summaries := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, map[string]any{
			"id":         task.ID,
			"prompt":     truncatePrompt(task.Prompt),
			"status":     task.Status,
			"model":      fromOptional(task.Model),
			"provider":   fromOptional(task.Provider),
			"priority":   task.Priority,
			"has_result": task.Result != nil,
			"created_at": task.CreatedAt.Format(time.RFC3339),
		})
	}

	return successResult(map[string]any{
		"count": len(summaries),
		"tasks": summaries,
	})
}

func (s *Server) handleGetTaskResult(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := req.RequireInt("task_id")
	if err != nil {
		return errorResult(CodeMissingParameter, "task_id is required and must be a number")
	}

	task, err := s.logic.GetTask(ctx, int32(taskID))
	if err != nil {
		if errors.Is(err, errval.ErrNotFound) {
			return errorResult(CodeTaskNotFound, fmt.Sprintf("task %d does not exist", taskID))
		}
		return errorResult(CodeQueryError, err.Error())
	}
	if task.Status != domain.Completed {
		return errorResult(CodeTaskNotCompleted, fmt.Sprintf("task %d is %s, its result is only available once it is COMPLETED", task.ID, task.Status))
	}

	return successResult(map[string]any{
		"task_id":      task.ID,
		"result":       fromOptional(task.Result),
		"model":        fromOptional(task.Model),
		"provider":     fromOptional(task.Provider),
		"completed_at": task.UpdatedAt.Format(time.RFC3339),
	})
}

func truncatePrompt(prompt string) string {
	if len(prompt) <= listPromptPreviewLen {
		return prompt
	}
	return prompt[:listPromptPreviewLen] + "..."
}

func fromOptional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isKnownProvider(provider string) bool {
	for _, name := range domain.ProviderNames() {
		if provider == string(name) {
			return true
		}
	}
	return false
}

func parseStatus(status string) (domain.TaskStatus, bool) {
	switch domain.TaskStatus(status) {
	case domain.Pending, domain.Processing, domain.Completed, domain.Failed, domain.QueueFailed:
		return domain.TaskStatus(status), true
	default:
		return "", false
	}
}
