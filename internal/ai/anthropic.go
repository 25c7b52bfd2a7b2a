package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sf7293/ai-task-runner/internal/domain"
)

const (
	anthropicDefaultModel = "claude-3-sonnet-20240229"
	anthropicVersion      = "2023-06-01"
)

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	BaseURL          string
	APIKey           string
	HTTP             *http.Client
	MaxResponseBytes int64
}

func NewAnthropicClient(baseURL, apiKey string) *AnthropicClient {
	return &AnthropicClient{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		APIKey:           apiKey,
		HTTP:             newHTTPClient(),
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

type anthropicMessagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicMessagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	payload := anthropicMessagesRequest{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}

	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": anthropicVersion,
	}
	raw, err := postJSON(ctx, c.HTTP, c.BaseURL+"/v1/messages", headers, payload, c.MaxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var parsed anthropicMessagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: unmarshal response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("anthropic: response contained no content blocks")
	}

	return parsed.Content[0].Text, nil
}
