package llm

import (
	"context"
	"errors"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any generative text backend.
type Provider interface {
	// Generate sends a single prompt to the model and returns the text.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Describe sends binary media (an image or a PDF) together with a
	// prompt and returns the model's textual description.
	Describe(ctx context.Context, data []byte, mimeType string, prompt string, options ...Option) (string, error)
}

// RateLimitError marks a provider rejection that is safe to retry after
// backing off. errors.Is(err, ErrRateLimited) matches it.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "llm: rate limited: " + e.Message
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

var ErrRateLimited = errors.New("llm: rate limited")

// IsRateLimit reports whether err carries a retryable rate-limit signal.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
