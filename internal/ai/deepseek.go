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

const deepSeekDefaultModel = "deepseek-chat"

// DeepSeekClient calls the DeepSeek chat completions API, which is
// OpenAI-compatible on the wire apart from the explicit stream flag.
type DeepSeekClient struct {
	BaseURL          string
	APIKey           string
	HTTP             *http.Client
	MaxResponseBytes int64
}

func NewDeepSeekClient(baseURL, apiKey string) *DeepSeekClient {
	return &DeepSeekClient{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		APIKey:           apiKey,
		HTTP:             newHTTPClient(),
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

type deepSeekChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type deepSeekChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *DeepSeekClient) GenerateText(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = deepSeekDefaultModel
	}

	payload := deepSeekChatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}

	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	raw, err := postJSON(ctx, c.HTTP, c.BaseURL+"/v1/chat/completions", headers, payload, c.MaxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("deepseek: %w", err)
	}

	var parsed deepSeekChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("deepseek: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("deepseek: response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
