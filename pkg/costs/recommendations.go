package costs

import (
	"fmt"

	"github.com/flowforge/flowforge/pkg/models"
)

// Recommendation is an actionable cost-optimization suggestion derived from
// the current ledger.
type Recommendation struct {
	Suggestion       string `json:"suggestion"`
	EstimatedSavings int    `json:"estimated_savings_pct"`
}

// Average-cost threshold above which a general prompt-size warning fires.
const highAverageCallCost = 0.05

// GetRecommendations inspects the ledger for spend patterns that have cheap
// fixes: simple workflows on expensive models, oversized average call cost,
// and repeated failed calls that were still billed.
func (m *Monitor) GetRecommendations() []Recommendation {
	m.mu.Lock()
	records := append([]models.CostRecord(nil), m.entriesLocked()...)
	m.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	var recommendations []Recommendation

	simpleOnPremium := 0
	failedCost := 0.0
	totalCost := 0.0

	for _, record := range records {
		totalCost += record.TotalCost

		if record.Complexity == models.ComplexitySimple && isPremiumModel(record.Model) {
			simpleOnPremium++
		}

		if !record.Success {
			failedCost += record.TotalCost
		}
	}

	if simpleOnPremium > 0 {
		recommendations = append(recommendations, Recommendation{
			Suggestion: fmt.Sprintf(
				"%d simple workflows were generated with a premium model; route simple jobs to the economy tier",
				simpleOnPremium,
			),
			EstimatedSavings: 60,
		})
	}

	average := totalCost / float64(len(records))
	if average > highAverageCallCost {
		recommendations = append(recommendations, Recommendation{
			Suggestion: fmt.Sprintf(
				"average cost per call is %.4f USD; reduce embedded documentation context to shrink prompts",
				average,
			),
			EstimatedSavings: 30,
		})
	}

	if totalCost > 0 && failedCost/totalCost > 0.2 {
		recommendations = append(recommendations, Recommendation{
			Suggestion:       "more than 20% of spend went to failed calls; review provider fallback ordering",
			EstimatedSavings: 20,
		})
	}

	return recommendations
}

func isPremiumModel(model string) bool {
	rate, ok := modelRates[model]
	if !ok {
		return false
	}

	return rate.OutputPerMillion >= 10.0
}
