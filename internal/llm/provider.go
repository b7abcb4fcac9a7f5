package llm

import (
	"context"

	"github.com/avatarly/avatar-relay/internal/domain"
)

// Request contains chat completion parameters. The full turn history is
// sent on every call; the upstream is stateless.
type Request struct {
	Turns       []domain.Turn
	MaxTokens   int
	Temperature float64
}

// Response contains the generation result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for text-generation providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete generates a reply for the given turn history
	Complete(ctx context.Context, req Request) (*Response, error)
}
