// Package costs tracks per-call AI spend in a bounded in-session ledger.
package costs

import (
	"fmt"
	"math"
)

// Rate holds the USD price per million tokens for one model.
type Rate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Per-model pricing. Values are USD per million tokens.
var modelRates = map[string]Rate{
	"gpt-4o":            {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":       {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"claude-sonnet-4-5": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-3-5":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
}

// Breakdown is the cost of a single call, split by direction.
type Breakdown struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// CalculateCost computes the price of one call from the per-model rate table.
// Pure function, no side effects. Unknown models are an error so that a new
// model cannot silently run unmetered.
func CalculateCost(model string, inputTokens, outputTokens int) (Breakdown, error) {
	rate, ok := modelRates[model]
	if !ok {
		return Breakdown{}, fmt.Errorf("no rate configured for model %q", model)
	}

	input := roundCost(float64(inputTokens) / 1_000_000 * rate.InputPerMillion)
	output := roundCost(float64(outputTokens) / 1_000_000 * rate.OutputPerMillion)

	return Breakdown{
		InputCost:  input,
		OutputCost: output,
		TotalCost:  roundCost(input + output),
	}, nil
}

// roundCost rounds to micro-dollar precision.
func roundCost(v float64) float64 {
	return math.Round(v*1_000_000) / 1_000_000
}
