package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sf7293/ai-task-runner/internal/domain"
)

const promptSampleSize = 20

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(
		mcp.NewPrompt("task_summary",
			mcp.WithPromptDescription("Summarize recent tasks, optionally filtered by status"),
			mcp.WithArgument("status",
				mcp.ArgumentDescription("Only include tasks with this status (optional)"),
			),
		), s.handleTaskSummaryPrompt)

	s.mcpServer.AddPrompt(
		mcp.NewPrompt("system_health",
			mcp.WithPromptDescription("Assess the health of the task processing pipeline"),
		), s.handleSystemHealthPrompt)

	s.mcpServer.AddPrompt(
		mcp.NewPrompt("task_analysis",
			mcp.WithPromptDescription("Analyze a single task's prompt and outcome"),
			mcp.WithArgument("task_id",
				mcp.ArgumentDescription("The task identifier to analyze"),
				mcp.RequiredArgument(),
			),
		), s.handleTaskAnalysisPrompt)

	s.mcpServer.AddPrompt(
		mcp.NewPrompt("performance_review",
			mcp.WithPromptDescription("Review per-model throughput and success rates"),
		), s.handlePerformanceReviewPrompt)
}

func (s *Server) handleTaskSummaryPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var tasks []*domain.Task
	var err error
	if status := req.Params.Arguments["status"]; status != "" {
		taskStatus, ok := parseStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		tasks, err = s.storage.ListTasksByStatus(ctx, taskStatus, 0, promptSampleSize)
	} else {
		tasks, err = s.storage.ListTasks(ctx, 0, promptSampleSize)
	}
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var b strings.Builder
	b.WriteString("Summarize the following AI generation tasks. Group them by status, call out failures and name common themes in the prompts.\n\n")
	if len(tasks) == 0 {
		b.WriteString("There are no tasks yet.\n")
	}
	for _, task := range tasks {
		fmt.Fprintf(&b, "- Task %d [%s] priority %d: %s\n", task.ID, task.Status, task.Priority, truncatePrompt(task.Prompt))
	}

	return mcp.NewGetPromptResult(
		"Recent task summary",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String())),
		},
	), nil
}

func (s *Server) handleSystemHealthPrompt(ctx context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
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

	var b strings.Builder
	b.WriteString("Assess the health of this asynchronous AI task pipeline. A growing PENDING backlog means workers are not keeping up, FAILED and QUEUE_FAILED tasks point at provider or broker trouble.\n\n")
	fmt.Fprintf(&b, "Total tasks: %d\n", total)
	for _, row := range counts {
		fmt.Fprintf(&b, "%s: %d\n", row.Status, row.Count)
	}
	fmt.Fprintf(&b, "Average processing time of completed tasks: %.1f seconds\n", avgSeconds)
	b.WriteString("\nState whether the system looks healthy and what to investigate first if not.")

	return mcp.NewGetPromptResult(
		"Pipeline health assessment",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String())),
		},
	), nil
}

func (s *Server) handleTaskAnalysisPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	rawID := req.Params.Arguments["task_id"]
	if rawID == "" {
		return nil, fmt.Errorf("task_id argument is required")
	}
	taskID, err := strconv.ParseInt(rawID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("task_id must be a number: %w", err)
	}

	task, err := s.storage.GetTaskByID(ctx, int32(taskID))
	if err != nil {
		return nil, fmt.Errorf("fetching task %d: %w", taskID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this AI generation task. Judge whether the outcome matches the prompt's intent and suggest how the prompt, model or provider choice could be improved.\n\n")
	fmt.Fprintf(&b, "Task %d\nStatus: %s\nProvider: %s\nModel: %s\nPriority: %d\n\nPrompt:\n%s\n", task.ID, task.Status, fromOptional(task.Provider), fromOptional(task.Model), task.Priority, task.Prompt)
	if task.Result != nil {
		fmt.Fprintf(&b, "\nResult:\n%s\n", *task.Result)
	} else {
		b.WriteString("\nThe task has no result yet.\n")
	}

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Analysis of task %d", task.ID),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String())),
		},
	), nil
}

func (s *Server) handlePerformanceReviewPrompt(ctx context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	usage, err := s.storage.ModelUsageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting model usage: %w", err)
	}
	avgSeconds, err := s.storage.AverageProcessingSeconds(ctx)
	if err != nil {
		return nil, fmt.Errorf("averaging processing time: %w", err)
	}

	var b strings.Builder
	b.WriteString("Review the per-model performance of this AI task runner. Flag models with low success rates and recommend which model to prefer for new tasks.\n\n")
	if len(usage) == 0 {
		b.WriteString("No tasks have been recorded yet.\n")
	}
	for _, row := range usage {
		rate := 0.0
		if row.TotalTasks > 0 {
			rate = float64(row.CompletedTasks) / float64(row.TotalTasks) * 100
		}
		model := row.Model
		if model == "" {
			model = "(provider default)"
		}
		fmt.Fprintf(&b, "- %s: %d tasks, %d completed (%.0f%% success)\n", model, row.TotalTasks, row.CompletedTasks, rate)
	}
	fmt.Fprintf(&b, "\nAverage processing time of completed tasks: %.1f seconds\n", avgSeconds)

	return mcp.NewGetPromptResult(
		"Model performance review",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String())),
		},
	), nil
}
