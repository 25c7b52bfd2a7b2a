package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text         string
	err          error
	gotPrompt    string
	gotOptions   domain.GenerationOptions
	invocations  int
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	s.invocations++
	s.gotPrompt = prompt
	s.gotOptions = opts
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func newTestService() *Service {
	return NewService(configs.AIConfig{
		DefaultModel: "gpt-3.5-turbo",
		Temperature:  0.7,
		MaxTokens:    1000,
	})
}

func TestService_NoProviderConfigured(t *testing.T) {
	s := newTestService()

	assert.False(t, s.IsAvailable())

	_, _, err := s.Provider("")
	assert.ErrorIs(t, err, errval.ErrNoProvider)

	_, err = s.GenerateText(context.Background(), "hi", "", "")
	assert.ErrorIs(t, err, errval.ErrNoProvider)
}

func TestService_ProviderLookup(t *testing.T) {
	s := newTestService()
	openai := &stubGenerator{text: "from openai"}
	deepseek := &stubGenerator{text: "from deepseek"}
	s.Register(domain.OpenAI, openai)
	s.Register(domain.DeepSeek, deepseek)

	t.Run("named provider is returned", func(t *testing.T) {
		g, name, err := s.Provider("deepseek")
		require.NoError(t, err)
		assert.Equal(t, domain.DeepSeek, name)
		assert.Same(t, deepseek, g.(*stubGenerator))
	})

	t.Run("empty name falls back to first registered", func(t *testing.T) {
		g, name, err := s.Provider("")
		require.NoError(t, err)
		assert.Equal(t, domain.OpenAI, name)
		assert.Same(t, openai, g.(*stubGenerator))
	})

	t.Run("unknown provider error lists available ones", func(t *testing.T) {
		_, _, err := s.Provider("anthropic")
		require.Error(t, err)
		assert.ErrorIs(t, err, errval.ErrProviderNotFound)
		assert.Contains(t, err.Error(), "not available")
		assert.Contains(t, err.Error(), "openai, deepseek")
	})
}

func TestService_GenerateTextFillsDefaults(t *testing.T) {
	s := newTestService()
	openai := &stubGenerator{text: "ok"}
	deepseek := &stubGenerator{text: "ok"}
	anthropic := &stubGenerator{text: "ok"}
	s.Register(domain.OpenAI, openai)
	s.Register(domain.DeepSeek, deepseek)
	s.Register(domain.Anthropic, anthropic)

	tests := []struct {
		name      string
		provider  string
		model     string
		stub      *stubGenerator
		wantModel string
	}{
		{"openai uses configured default model", "openai", "", openai, "gpt-3.5-turbo"},
		{"deepseek default", "deepseek", "", deepseek, "deepseek-chat"},
		{"anthropic default", "anthropic", "", anthropic, "claude-3-sonnet-20240229"},
		{"explicit model wins", "openai", "gpt-4", openai, "gpt-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := s.GenerateText(context.Background(), "Explain gravity", tt.provider, tt.model)
			require.NoError(t, err)
			assert.Equal(t, "ok", text)
			assert.Equal(t, tt.wantModel, tt.stub.gotOptions.Model)
			assert.Equal(t, "Explain gravity", tt.stub.gotPrompt)
			assert.Equal(t, 0.7, tt.stub.gotOptions.Temperature)
			assert.Equal(t, 1000, tt.stub.gotOptions.MaxTokens)
		})
	}
}

func TestService_GenerateTextPropagatesProviderError(t *testing.T) {
	s := newTestService()
	boom := errors.New("provider exploded")
	s.Register(domain.OpenAI, &stubGenerator{err: boom})

	_, err := s.GenerateText(context.Background(), "hi", "", "")
	assert.ErrorIs(t, err, boom)
}

func TestNewService_RegistersConfiguredProviders(t *testing.T) {
	s := NewService(configs.AIConfig{
		OpenAIAPIKey:    "k1",
		OpenAIBaseURL:   "https://api.openai.com",
		AnthropicAPIKey: "k2",
		AnthropicBaseURL: "https://api.anthropic.com",
		DefaultModel:    "gpt-3.5-turbo",
	})

	assert.True(t, s.IsAvailable())
	assert.Equal(t, []string{"openai", "anthropic"}, s.AvailableProviders())
}
