package domain

import "time"

type TaskStatus string

const (
	Pending     TaskStatus = "PENDING"
	Processing  TaskStatus = "PROCESSING"
	Completed   TaskStatus = "COMPLETED"
	Failed      TaskStatus = "FAILED"
	QueueFailed TaskStatus = "QUEUE_FAILED"
)

// IsTerminal reports whether no further transition may leave the status.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case Completed, Failed, QueueFailed:
		return true
	default:
		return false
	}
}

type ProviderName string

const (
	OpenAI    ProviderName = "openai"
	DeepSeek  ProviderName = "deepseek"
	Anthropic ProviderName = "anthropic"
)

// ProviderNames is the fixed allow-list, in registration order.
func ProviderNames() []ProviderName {
	return []ProviderName{OpenAI, DeepSeek, Anthropic}
}

const (
	MinPromptLength = 1
	MaxPromptLength = 1000
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 1
)

type Task struct {
	ID        int32      `json:"id"`
	Prompt    string     `json:"prompt"`
	Model     *string    `json:"model"`
	Provider  *string    `json:"provider"`
	Priority  int32      `json:"priority"`
	Status    TaskStatus `json:"status"`
	Result    *string    `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type RouterRequestCreateTask struct {
	Prompt   string  `json:"prompt" form:"prompt" binding:"required,min=1,max=1000"`
	Model    *string `json:"model" form:"model" binding:"omitempty,max=100"`
	Provider *string `json:"provider" form:"provider" binding:"omitempty,validate_provider"`
	Priority *int32  `json:"priority" form:"priority" binding:"omitempty,gte=1,lte=10"`
}

// GenerationJob is the queue envelope for one text-generation job. JobID is
// only used for log correlation, the worker re-reads the task row by TaskID.
type GenerationJob struct {
	JobID    string `json:"job_id"`
	TaskID   int32  `json:"task_id"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// StatusCount is one row of the per-status aggregate.
type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int64      `json:"count"`
}

// ModelUsage is one row of the per-model aggregate.
type ModelUsage struct {
	Model          string `json:"model"`
	TotalTasks     int64  `json:"total_tasks"`
	CompletedTasks int64  `json:"completed_tasks"`
}
