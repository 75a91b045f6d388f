// Package providers routes AI completion calls across providers with
// tier-aware selection and single-step fallback. No other package is allowed
// to call an AI provider directly.
package providers

import (
	"context"
	"errors"

	"github.com/flowforge/flowforge/pkg/models"
)

// ErrProviderExhausted is returned when every provider in the fallback chain
// failed for one call.
var ErrProviderExhausted = errors.New("all AI providers in the fallback chain failed")

// Request carries one completion call through the router.
type Request struct {
	Prompt       string
	Tier         models.PlanTier
	Complexity   models.Complexity
	JobID        string
	MaxTokens    int
	Temperature  float64
	Organization *models.OrganizationContext
}

// Response is the raw completion returned by a provider. Token counts come
// from the provider's usage block when available.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client is a single AI provider endpoint bound to one model.
type Client interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// estimateTokens approximates token usage for providers or failures where no
// usage block is available. Four characters per token is the usual rule of
// thumb for English prose.
func estimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	return len(text)/4 + 1
}
