package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackText_KeywordBuckets(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		contains string
	}{
		{"weather bucket", "What is the weather like today?", "sunny"},
		{"math bucket", "Solve this math problem", "42"},
		{"addition bucket", "calculate 2 + 2", "arithmetic"},
		{"code bucket", "Write a Python script", "def process_ai_task"},
		{"translate bucket", "Translate this to English", "Translation result"},
		{"default bucket", "Explain gravity", "interesting question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackText(tt.prompt)
			assert.Contains(t, got, tt.contains)
			// Every bucket embeds the original prompt.
			assert.Contains(t, got, tt.prompt)
		})
	}
}

func TestFallbackText_IsDeterministic(t *testing.T) {
	a := FallbackText("Explain gravity")
	b := FallbackText("Explain gravity")
	assert.Equal(t, a, b)
}
