package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var captured *http.Request
	var capturedBody openAIChatRequest

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		captured = r
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &capturedBody)
		return jsonResponse(200, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`), nil
	})

	c := NewOpenAIClient("http://fake.test", "secret-key")
	c.HTTP = &http.Client{Transport: rt}

	text, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{Temperature: 0.7, MaxTokens: 1000})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	assert.Equal(t, "/v1/chat/completions", captured.URL.Path)
	assert.Equal(t, "Bearer secret-key", captured.Header.Get("Authorization"))
	// Model falls back to the provider default when the caller names none.
	assert.Equal(t, "gpt-3.5-turbo", capturedBody.Model)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "hi"}}, capturedBody.Messages)
	assert.Equal(t, 1000, capturedBody.MaxTokens)
}

func TestOpenAIClient_Non2xxIsWrapped(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"error":{"message":"rate limited"}}`), nil
	})

	c := NewOpenAIClient("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: rt}

	_, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"choices":[]}`), nil
	})

	c := NewOpenAIClient("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: rt}

	_, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestDeepSeekClient_GenerateText(t *testing.T) {
	var capturedBody deepSeekChatRequest

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &capturedBody)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		return jsonResponse(200, `{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`), nil
	})

	c := NewDeepSeekClient("http://fake.test/", "key")
	c.HTTP = &http.Client{Transport: rt}

	text, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, "deepseek-chat", capturedBody.Model)
	assert.False(t, capturedBody.Stream)
}

func TestAnthropicClient_GenerateText(t *testing.T) {
	var captured *http.Request
	var capturedBody anthropicMessagesRequest

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		captured = r
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &capturedBody)
		return jsonResponse(200, `{"content":[{"type":"text","text":"claude says hi"}]}`), nil
	})

	c := NewAnthropicClient("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: rt}

	text, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "claude says hi", text)

	assert.Equal(t, "/v1/messages", captured.URL.Path)
	assert.Equal(t, "key", captured.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, captured.Header.Get("anthropic-version"))
	assert.Equal(t, "claude-3-sonnet-20240229", capturedBody.Model)
	assert.Equal(t, 256, capturedBody.MaxTokens)
}

func TestClient_ResponseBodyIsCapped(t *testing.T) {
	const limit int64 = 64
	bigBody := strings.Repeat("x", int(limit)+100)

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, bigBody), nil
	})

	c := NewOpenAIClient("http://fake.test", "key")
	c.HTTP = &http.Client{Transport: rt}
	c.MaxResponseBytes = limit

	// Unmarshalling the truncated body fails; the point is that the read was
	// capped at limit bytes.
	_, err := c.GenerateText(context.Background(), "hi", domain.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
