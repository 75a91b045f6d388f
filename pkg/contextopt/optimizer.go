package contextopt

import (
	"strings"

	"github.com/flowforge/flowforge/pkg/models"
)

// Output-token ceilings per complexity class, scaled by plan tier below.
var baseTokenBudget = map[models.Complexity]int{
	models.ComplexitySimple: 2048,
	models.ComplexityMedium: 4096,
	models.ComplexityHigh:   8192,
}

// Tier multipliers in percent. Entry tiers get tighter ceilings to bound
// both cost and provider latency.
var tierBudgetPercent = map[models.PlanTier]int{
	models.PlanTierFree:         75,
	models.PlanTierStarter:      100,
	models.PlanTierProfessional: 125,
	models.PlanTierEnterprise:   150,
}

// GetContextBudget maps complexity and plan tier to an output-token ceiling.
func GetContextBudget(complexity models.Complexity, tier models.PlanTier) int {
	base, ok := baseTokenBudget[complexity]
	if !ok {
		base = baseTokenBudget[models.ComplexityMedium]
	}

	percent, ok := tierBudgetPercent[tier]
	if !ok {
		percent = 100
	}

	return base * percent / 100
}

// GetOptimizedContext derives the documentation budget for one generation
// attempt: how many node types to document, how many characters per excerpt,
// and which node types and concerns the excerpts should focus on.
func GetOptimizedContext(plan *models.OrchestrationPlan, job *models.AutomationJob) models.ContextConfig {
	analysis := AnalyzeComplexity(plan, job)

	config := models.ContextConfig{
		WorkflowType: classifyWorkflowType(analysis),
		Complexity:   analysis.Complexity,
	}

	switch analysis.Complexity {
	case models.ComplexitySimple:
		config.NodeCount = 4
		config.CharsPerDoc = 600
	case models.ComplexityMedium:
		config.NodeCount = 6
		config.CharsPerDoc = 1000
	case models.ComplexityHigh:
		config.NodeCount = 10
		config.CharsPerDoc = 1500
	}

	if analysis.NeedsEmail {
		config.FocusNodeTypes = append(config.FocusNodeTypes, models.NodeTypeEmailSend)
		config.FocusAreas = append(config.FocusAreas, "email delivery and formatting")
	}

	if analysis.NeedsAI {
		config.FocusNodeTypes = append(config.FocusNodeTypes, models.NodeTypeOpenAI)
		config.FocusAreas = append(config.FocusAreas, "AI text classification")
	}

	if analysis.NeedsConditional {
		config.FocusNodeTypes = append(config.FocusNodeTypes, models.NodeTypeIf, models.NodeTypeSwitch)
		config.FocusAreas = append(config.FocusAreas, "conditional branching")
	}

	if analysis.NeedsDataStore {
		config.FocusNodeTypes = append(config.FocusNodeTypes, models.NodeTypeSheets, models.NodeTypeAirtable)
		config.FocusAreas = append(config.FocusAreas, "structured data persistence")
	}

	if len(config.FocusNodeTypes) == 0 {
		config.FocusNodeTypes = []string{models.NodeTypeHTTPRequest, models.NodeTypeSet}
		config.FocusAreas = []string{"generic data plumbing"}
	}

	return config
}

func classifyWorkflowType(analysis Analysis) string {
	switch {
	case analysis.NeedsEmail && analysis.NeedsAI:
		return "ai-email"
	case analysis.NeedsEmail:
		return "email"
	case analysis.NeedsAI:
		return "ai-processing"
	case analysis.NeedsDataStore:
		return "data-sync"
	default:
		return "general"
	}
}

// WorkflowTypeFromDescription is a convenience used by callers that only
// have raw text, for example the deterministic blueprint path.
func WorkflowTypeFromDescription(description string) string {
	lower := strings.ToLower(description)

	switch {
	case containsAny(lower, emailKeywords):
		return "email"
	case containsAny(lower, dataKeywords):
		return "data-sync"
	default:
		return "general"
	}
}
