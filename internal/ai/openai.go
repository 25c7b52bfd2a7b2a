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

const openAIDefaultModel = "gpt-3.5-turbo"

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	BaseURL          string
	APIKey           string
	HTTP             *http.Client
	MaxResponseBytes int64
}

func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		APIKey:           apiKey,
		HTTP:             newHTTPClient(),
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = openAIDefaultModel
	}

	payload := openAIChatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	raw, err := postJSON(ctx, c.HTTP, c.BaseURL+"/v1/chat/completions", headers, payload, c.MaxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai: response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
