package cmd

import (
	"log/slog"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/discovery"
	"github.com/flowforge/flowforge/pkg/providers"
)

// RouterConfig carries the provider credentials and model overrides for one
// process.
type RouterConfig struct {
	OpenAIKey      string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
}

// NewRouter builds the model router over every provider that has an API key
// configured. A process with no keys gets an empty router, which fails every
// call; that is intentional for blueprint-only deployments.
func NewRouter(config RouterConfig, monitor *costs.Monitor, logger *slog.Logger) *providers.Router {
	if config.OpenAIModel == "" {
		config.OpenAIModel = "gpt-4o-mini"
	}

	if config.AnthropicModel == "" {
		config.AnthropicModel = "claude-sonnet-4-5"
	}

	clients := make([]providers.Client, 0, 2)

	if config.OpenAIKey != "" {
		clients = append(clients, providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey: config.OpenAIKey,
			Model:  config.OpenAIModel,
		}))
	}

	if config.AnthropicKey != "" {
		clients = append(clients, providers.NewAnthropicClient(providers.AnthropicConfig{
			APIKey: config.AnthropicKey,
			Model:  config.AnthropicModel,
		}))
	}

	if len(clients) == 0 {
		logger.Warn("No AI provider keys configured, every AI call will fail")
	}

	return providers.NewRouter(monitor, logger, clients...)
}

// NewDiscoveryClient builds the node-discovery client, or nil when no
// endpoint is configured. A nil client degrades the orchestrator to static
// planning.
func NewDiscoveryClient(endpoint, token string, logger *slog.Logger) *discovery.Client {
	if endpoint == "" {
		return nil
	}

	return discovery.NewClient(discovery.Config{
		Endpoint: endpoint,
		Token:    token,
	}, logger)
}
