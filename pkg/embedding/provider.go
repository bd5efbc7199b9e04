package embedding

import (
	"context"
	"errors"
)

// ModelDimensions maps each supported embedding model to the exact vector
// dimension it produces. The vector column in Postgres is sized from this
// table, so an unknown model is a configuration error, not a guess.
var ModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

var (
	// ErrMissingAPIKey means no provider credential was configured.
	// Fatal at construction, never retried.
	ErrMissingAPIKey = errors.New("embedding: API key is not configured")

	// ErrUnknownModel means the configured model has no dimension entry.
	ErrUnknownModel = errors.New("embedding: unknown model name")
)

// Provider converts text into a fixed-dimension vector. Implementations
// do not cache; callers that need idempotency cache at their own layer.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelName() string
}
