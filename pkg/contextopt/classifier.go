// Package contextopt classifies job complexity and derives the token and
// documentation budgets that bound generation prompts. Prompt size dominates
// spend, so this is the primary cost-control lever.
package contextopt

import (
	"fmt"
	"strings"

	"github.com/flowforge/flowforge/pkg/models"
)

// Keyword groups used by the classifier. Matching is case-insensitive
// substring search over the plan and the job description.
var (
	emailKeywords       = []string{"email", "e-mail", "inbox", "gmail", "outlook"}
	aiKeywords          = []string{"categorize", "classify", "summarize", "sentiment", "extract", "ai ", "llm", "gpt"}
	conditionalKeywords = []string{"if ", "when ", "depending", "route", "branch", "priority", "escalate", "approve"}
	dataKeywords        = []string{"spreadsheet", "sheet", "database", "airtable", "crm", "record", "csv", "export"}
)

// Scoring weights. Keyword groups weigh more than raw counts because the
// presence of AI or branching logic changes the generated graph shape.
const (
	weightKeywordGroup     = 2
	weightPerOpportunity   = 1
	weightPerStep          = 1
	mediumThreshold        = 4
	highThreshold          = 8
	maxCountedContributors = 6
)

// Analysis is the outcome of classifying a job. Reasons are human-readable
// and intended for logging and audit, not for machine consumption.
type Analysis struct {
	Complexity models.Complexity
	Score      int
	Reasons    []string

	NeedsEmail       bool
	NeedsAI          bool
	NeedsConditional bool
	NeedsDataStore   bool
}

// AnalyzeComplexity scores a job (and, when available, its plan) into a
// simple/medium/high class using weighted keyword and size heuristics.
func AnalyzeComplexity(plan *models.OrchestrationPlan, job *models.AutomationJob) Analysis {
	corpus := strings.ToLower(job.ProcessData.Description)

	for _, opp := range job.AutomationOpportunities {
		corpus += " " + strings.ToLower(opp.StepDescription+" "+opp.AutomationSolution)
	}

	stepCount := 0

	if plan != nil {
		corpus += " " + strings.ToLower(plan.Description)
		stepCount = len(plan.Steps)

		for _, step := range plan.Steps {
			corpus += " " + strings.ToLower(step.Name+" "+step.Type)
		}
	}

	analysis := Analysis{}

	if containsAny(corpus, emailKeywords) {
		analysis.NeedsEmail = true
		analysis.Score += weightKeywordGroup
		analysis.Reasons = append(analysis.Reasons, "process involves email handling")
	}

	if containsAny(corpus, aiKeywords) {
		analysis.NeedsAI = true
		analysis.Score += weightKeywordGroup
		analysis.Reasons = append(analysis.Reasons, "process requires AI text processing")
	}

	if containsAny(corpus, conditionalKeywords) {
		analysis.NeedsConditional = true
		analysis.Score += weightKeywordGroup
		analysis.Reasons = append(analysis.Reasons, "process contains conditional routing")
	}

	if containsAny(corpus, dataKeywords) {
		analysis.NeedsDataStore = true
		analysis.Score += weightKeywordGroup
		analysis.Reasons = append(analysis.Reasons, "process reads or writes structured data stores")
	}

	opportunities := min(len(job.AutomationOpportunities), maxCountedContributors)
	if opportunities > 0 {
		analysis.Score += opportunities * weightPerOpportunity
		analysis.Reasons = append(analysis.Reasons,
			fmt.Sprintf("%d automation opportunities identified", len(job.AutomationOpportunities)))
	}

	steps := min(stepCount, maxCountedContributors)
	if steps > 0 {
		analysis.Score += steps * weightPerStep
		analysis.Reasons = append(analysis.Reasons,
			fmt.Sprintf("orchestration plan has %d steps", stepCount))
	}

	switch {
	case analysis.Score >= highThreshold:
		analysis.Complexity = models.ComplexityHigh
	case analysis.Score >= mediumThreshold:
		analysis.Complexity = models.ComplexityMedium
	default:
		analysis.Complexity = models.ComplexitySimple
	}

	return analysis
}

func containsAny(corpus string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(corpus, keyword) {
			return true
		}
	}

	return false
}
