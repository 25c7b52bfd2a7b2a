package domain

import "context"

// GenerationOptions are the per-call knobs shared by every provider.
type GenerationOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// TextGenerator is the uniform provider contract: one prompt in, one text out.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}
