// Package memory provides an in-memory Storage implementation. It backs the
// unit tests so that logic layers can be exercised without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

type TaskStore struct {
	mu    sync.RWMutex
	seq   int32
	tasks map[int32]*domain.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[int32]*domain.Task{}}
}

func (s *TaskStore) Ping(_ context.Context) error {
	return nil
}

func (s *TaskStore) InsertTask(_ context.Context, prompt string, model, provider *string, priority int32) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now().UTC()
	task := &domain.Task{
		ID:        s.seq,
		Prompt:    prompt,
		Model:     model,
		Provider:  provider,
		Priority:  priority,
		Status:    domain.Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[task.ID] = task

	return copyTask(task), nil
}

func (s *TaskStore) GetTaskByID(_ context.Context, ID int32) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[ID]
	if !ok {
		return nil, errval.ErrNotFound
	}

	return copyTask(task), nil
}

func (s *TaskStore) ListTasks(_ context.Context, skip, limit int32) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginate(s.sortedByCreatedAtDesc(), skip, limit), nil
}

func (s *TaskStore) ListTasksByStatus(_ context.Context, taskStatus domain.TaskStatus, skip, limit int32) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := []*domain.Task{}
	for _, task := range s.sortedByCreatedAtDesc() {
		if task.Status == taskStatus {
			filtered = append(filtered, task)
		}
	}

	return paginate(filtered, skip, limit), nil
}

func (s *TaskStore) GetStaleTasksByStatus(_ context.Context, taskStatus domain.TaskStatus, passedSeconds, limit int32) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-time.Duration(passedSeconds) * time.Second)
	stale := []*domain.Task{}
	for _, task := range s.sortedByCreatedAtDesc() {
		if task.Status == taskStatus && !task.UpdatedAt.After(cutoff) {
			stale = append(stale, task)
		}
	}

	return paginate(stale, 0, limit), nil
}

func (s *TaskStore) SetTaskStatus(_ context.Context, taskID int32, currentStatus, newStatus domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return errval.ErrNotFound
	}
	if task.Status != currentStatus {
		return errval.ErrStatusConflict
	}

	task.Status = newStatus
	task.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *TaskStore) SetTaskResult(_ context.Context, taskID int32, currentStatus, newStatus domain.TaskStatus, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return errval.ErrNotFound
	}
	if task.Status != currentStatus {
		return errval.ErrStatusConflict
	}

	task.Status = newStatus
	task.Result = &result
	task.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *TaskStore) DeleteTask(_ context.Context, taskID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return errval.ErrNotFound
	}

	delete(s.tasks, taskID)
	return nil
}

func (s *TaskStore) CountTasks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.tasks)), nil
}

func (s *TaskStore) CountTasksByStatus(_ context.Context) ([]domain.StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := map[domain.TaskStatus]int64{}
	for _, task := range s.tasks {
		byStatus[task.Status]++
	}

	counts := []domain.StatusCount{}
	for _, status := range []domain.TaskStatus{domain.Pending, domain.Processing, domain.Completed, domain.Failed, domain.QueueFailed} {
		if byStatus[status] > 0 {
			counts = append(counts, domain.StatusCount{Status: status, Count: byStatus[status]})
		}
	}

	return counts, nil
}

func (s *TaskStore) AverageProcessingSeconds(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	var completed int64
	for _, task := range s.tasks {
		if task.Status == domain.Completed {
			total += task.UpdatedAt.Sub(task.CreatedAt).Seconds()
			completed++
		}
	}

	if completed == 0 {
		return 0, nil
	}

	return total / float64(completed), nil
}

func (s *TaskStore) ModelUsageStats(_ context.Context) ([]domain.ModelUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byModel := map[string]*domain.ModelUsage{}
	for _, task := range s.tasks {
		model := ""
		if task.Model != nil {
			model = *task.Model
		}

		usage, ok := byModel[model]
		if !ok {
			usage = &domain.ModelUsage{Model: model}
			byModel[model] = usage
		}
		usage.TotalTasks++
		if task.Status == domain.Completed {
			usage.CompletedTasks++
		}
	}

	models := make([]string, 0, len(byModel))
	for model := range byModel {
		models = append(models, model)
	}
	sort.Strings(models)

	stats := []domain.ModelUsage{}
	for _, model := range models {
		stats = append(stats, *byModel[model])
	}

	return stats, nil
}

// sortedByCreatedAtDesc tie-breaks on descending ID because in-memory inserts
// can share a timestamp.
func (s *TaskStore) sortedByCreatedAtDesc() []*domain.Task {
	tasks := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, copyTask(task))
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})

	return tasks
}

func paginate(tasks []*domain.Task, skip, limit int32) []*domain.Task {
	if skip >= int32(len(tasks)) {
		return []*domain.Task{}
	}

	end := skip + limit
	if end > int32(len(tasks)) {
		end = int32(len(tasks))
	}

	return tasks[skip:end]
}

func copyTask(task *domain.Task) *domain.Task {
	copied := *task
	if task.Model != nil {
		m := *task.Model
		copied.Model = &m
	}
	if task.Provider != nil {
		p := *task.Provider
		copied.Provider = &p
	}
	if task.Result != nil {
		r := *task.Result
		copied.Result = &r
	}

	return &copied
}
