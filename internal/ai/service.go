package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sf7293/ai-task-runner/configs"
	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/errval"
)

// Service holds one TextGenerator per configured provider. It is built once
// from an explicit config struct at process start; nothing here reads the
// environment, so tests can register fakes freely.
type Service struct {
	providers    map[domain.ProviderName]domain.TextGenerator
	order        []domain.ProviderName
	defaultModel string
	temperature  float64
	maxTokens    int
}

func NewService(cfg configs.AIConfig) *Service {
	s := &Service{
		providers:    map[domain.ProviderName]domain.TextGenerator{},
		defaultModel: cfg.DefaultModel,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}

	if cfg.OpenAIAPIKey != "" {
		s.Register(domain.OpenAI, NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey))
	}
	if cfg.DeepSeekAPIKey != "" {
		s.Register(domain.DeepSeek, NewDeepSeekClient(cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey))
	}
	if cfg.AnthropicAPIKey != "" {
		s.Register(domain.Anthropic, NewAnthropicClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey))
	}

	if len(s.order) > 0 {
		slog.Info("AI providers initialized", "providers", s.AvailableProviders())
	} else {
		slog.Warn("No AI provider is configured, generation jobs will fail")
	}

	return s
}

// Register adds a generator under the given name. Registration order decides
// which provider is picked when a task names none.
func (s *Service) Register(name domain.ProviderName, generator domain.TextGenerator) {
	if _, exists := s.providers[name]; !exists {
		s.order = append(s.order, name)
	}
	s.providers[name] = generator
}

func (s *Service) IsAvailable() bool {
	return len(s.order) > 0
}

func (s *Service) AvailableProviders() []string {
	names := make([]string, 0, len(s.order))
	for _, name := range s.order {
		names = append(names, string(name))
	}

	return names
}

// Provider returns the generator registered under name, or the first
// registered one when name is empty.
func (s *Service) Provider(name string) (domain.TextGenerator, domain.ProviderName, error) {
	if !s.IsAvailable() {
		return nil, "", errval.ErrNoProvider
	}

	if name == "" {
		first := s.order[0]
		return s.providers[first], first, nil
	}

	generator, ok := s.providers[domain.ProviderName(name)]
	if !ok {
		available := strings.Join(s.AvailableProviders(), ", ")
		return nil, "", fmt.Errorf("%w: provider %q is not available, available providers: %s",
			errval.ErrProviderNotFound, name, available)
	}

	return generator, domain.ProviderName(name), nil
}

// GenerateText resolves the provider, fills the provider-specific default
// model when none is supplied and merges the configured generation defaults.
func (s *Service) GenerateText(ctx context.Context, prompt, providerName, model string) (string, error) {
	generator, resolvedName, err := s.Provider(providerName)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = s.defaultModelFor(resolvedName)
	}

	slog.Info("Generating text", "provider", resolvedName, "model", model, "prompt_len", len(prompt))
	return generator.GenerateText(ctx, prompt, domain.GenerationOptions{
		Model:       model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
}

func (s *Service) defaultModelFor(name domain.ProviderName) string {
	switch name {
	case domain.DeepSeek:
		return deepSeekDefaultModel
	case domain.Anthropic:
		return anthropicDefaultModel
	case domain.OpenAI:
		return s.defaultModel
	default:
		return s.defaultModel
	}
}
