package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/models"
)

// Router selects a provider per tenant plan and complexity, issues the call,
// and retries once against the fallback provider on any failure. Every
// attempt, success or failure, is logged to the injected cost monitor.
type Router struct {
	clients map[string]Client
	monitor *costs.Monitor
	logger  *slog.Logger
}

func NewRouter(monitor *costs.Monitor, logger *slog.Logger, clients ...Client) *Router {
	byName := make(map[string]Client, len(clients))
	for _, client := range clients {
		byName[client.Name()] = client
	}

	return &Router{
		clients: byName,
		monitor: monitor,
		logger:  logger,
	}
}

// providerChain returns the ordered provider preference for one call.
// Cost-sensitive tiers lead with the economy provider; higher tiers and
// high-complexity jobs lead with the premium one.
func providerChain(tier models.PlanTier, complexity models.Complexity) []string {
	premiumFirst := []string{"anthropic", "openai"}
	economyFirst := []string{"openai", "anthropic"}

	if complexity == models.ComplexityHigh {
		return premiumFirst
	}

	switch tier {
	case models.PlanTierProfessional, models.PlanTierEnterprise:
		return premiumFirst
	default:
		return economyFirst
	}
}

// Call issues the completion against the preferred provider chain. Exhausting
// every configured provider returns ErrProviderExhausted wrapped with the
// last failure.
func (r *Router) Call(ctx context.Context, req Request) (string, error) {
	chain := providerChain(req.Tier, req.Complexity)

	var lastErr error

	attempts := 0

	for _, name := range chain {
		client, ok := r.clients[name]
		if !ok {
			continue
		}

		attempts++

		response, err := client.Complete(ctx, req)
		if err != nil {
			lastErr = err
			r.logCall(client, req, nil, false)
			r.logger.Warn("Provider call failed, trying fallback",
				"provider", name,
				"model", client.Model(),
				"job_id", req.JobID,
				"error", err,
			)

			continue
		}

		r.logCall(client, req, response, true)

		return response.Text, nil
	}

	if attempts == 0 {
		return "", fmt.Errorf("%w: no providers configured", ErrProviderExhausted)
	}

	return "", fmt.Errorf("%w: %w", ErrProviderExhausted, lastErr)
}

// logCall records one attempt in the cost ledger and runs the soft budget
// check. Failed attempts are billed with estimated input tokens since most
// providers charge for the prompt even when the completion fails.
func (r *Router) logCall(client Client, req Request, response *Response, success bool) {
	inputTokens := estimateTokens(req.Prompt)
	outputTokens := 0

	if response != nil {
		inputTokens = response.InputTokens
		outputTokens = response.OutputTokens
	}

	breakdown, err := costs.CalculateCost(client.Model(), inputTokens, outputTokens)
	if err != nil {
		r.logger.Warn("Cost calculation skipped", "model", client.Model(), "error", err)

		return
	}

	r.monitor.LogCost(models.CostRecord{
		Model:        client.Model(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    breakdown.InputCost,
		OutputCost:   breakdown.OutputCost,
		TotalCost:    breakdown.TotalCost,
		Timestamp:    time.Now().UTC(),
		Tier:         req.Tier,
		Complexity:   req.Complexity,
		JobID:        req.JobID,
		Success:      success,
	})

	r.monitor.CheckBudget(breakdown.TotalCost)
}
