package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	publishErr error
	published  []string
}

func (f *fakeQueue) IsHealthy() bool { return true }

func (f *fakeQueue) PublishMessage(queueName, body string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, body)
	return nil
}

func (f *fakeQueue) ConsumeMessages(consumerName, queueName string, handler func(string)) error {
	return nil
}

func (f *fakeQueue) Close() error { return nil }

func runTestServer(t *testing.T, queue *fakeQueue) *httptest.Server {
	t.Helper()
	cfg := &configs.Config{AppName: "ai-task-runner", AppVersion: "test"}
	storage := memory.NewTaskStore()
	postgresIsReady = true
	rabbitIsReady = true

	ts := httptest.NewServer(setupHTTPServer(cfg, storage, queue, "ai_generation_test"))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload map[string]interface{}) *http.Response {
	t.Helper()
	jsonData, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func Test_health_api(t *testing.T) {
	ts := runTestServer(t, &fakeQueue{})

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/health", ts.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ai-task-runner", body["app_name"])
	assert.NotEmpty(t, body["timestamp"])
}

func Test_liveness_api(t *testing.T) {
	ts := runTestServer(t, &fakeQueue{})

	resp, err := http.Get(fmt.Sprintf("%s/liveness", ts.URL))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func Test_readiness_api(t *testing.T) {
	ts := runTestServer(t, &fakeQueue{})

	resp, err := http.Get(fmt.Sprintf("%s/readiness", ts.URL))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func Test_create_task_api(t *testing.T) {
	queue := &fakeQueue{}
	ts := runTestServer(t, queue)

	t.Run("it should return 201 and the created task", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"prompt":   "Write a haiku about autumn",
			"provider": "openai",
			"priority": 3,
		})

		assert.Equal(t, 201, resp.StatusCode)
		body := decodeBody(t, resp)
		task := body["task"].(map[string]interface{})
		assert.Equal(t, float64(1), task["id"])
		assert.Equal(t, "PENDING", task["status"])
		assert.Equal(t, "openai", task["provider"])
		assert.Equal(t, float64(3), task["priority"])
		assert.Len(t, queue.published, 1)
	})

	t.Run("it should return 422 when the prompt is missing", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"provider": "openai",
		})

		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("it should return 422 when the prompt is too long", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"prompt": strings.Repeat("a", 1001),
		})

		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("it should return 422 for an unknown provider", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"prompt":   "hello",
			"provider": "gemini",
		})

		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("it should return 422 for an out-of-range priority", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"prompt":   "hello",
			"priority": 11,
		})

		assert.Equal(t, 422, resp.StatusCode)
	})
}

func Test_create_task_api_enqueue_failure(t *testing.T) {
	queue := &fakeQueue{publishErr: errors.New("broker unreachable")}
	ts := runTestServer(t, queue)

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
		"prompt": "doomed task",
	})

	assert.Equal(t, 502, resp.StatusCode)
}

func Test_get_task_api(t *testing.T) {
	ts := runTestServer(t, &fakeQueue{})
	postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
		"prompt": "fetch me later",
	})

	t.Run("it should return the task by id", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/1", ts.URL))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, 200, resp.StatusCode)
		body := decodeBody(t, resp)
		task := body["task"].(map[string]interface{})
		assert.Equal(t, "fetch me later", task["prompt"])
	})

	t.Run("it should return 404 for a missing task", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/999", ts.URL))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("it should return 400 for a non-numeric id", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/abc", ts.URL))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func Test_list_tasks_api(t *testing.T) {
	ts := runTestServer(t, &fakeQueue{})
	for i := 0; i < 3; i++ {
		postJSON(t, fmt.Sprintf("%s/api/v1/tasks", ts.URL), map[string]interface{}{
			"prompt": fmt.Sprintf("task number %d", i),
		})
	}

	t.Run("it should list all tasks newest first", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks", ts.URL))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, 200, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(3), body["count"])
		tasks := body["tasks"].([]interface{})
		first := tasks[0].(map[string]interface{})
		assert.Equal(t, "task number 2", first["prompt"])
	})

	t.Run("it should honor skip and limit", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks?skip=1&limit=1", ts.URL))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, 200, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["count"])
		task := body["tasks"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "task number 1", task["prompt"])
	})

	t.Run("it should return 422 for negative paging params", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks?skip=-1", ts.URL))
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)

		resp, err = http.Get(fmt.Sprintf("%s/api/v1/tasks?limit=-5", ts.URL))
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}
