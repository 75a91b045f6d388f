package contextopt

import (
	"testing"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleJob() *models.AutomationJob {
	return &models.AutomationJob{
		ID: "job-1",
		ProcessData: models.ProcessData{
			Description: "Copy form submissions into a folder",
		},
	}
}

func emailSheetJob() *models.AutomationJob {
	return &models.AutomationJob{
		ID: "job-2",
		ProcessData: models.ProcessData{
			Description: "Categorize incoming emails and log them to a spreadsheet",
		},
		AutomationOpportunities: []models.AutomationOpportunity{
			{StepDescription: "classify email by topic", AutomationSolution: "AI categorization"},
			{StepDescription: "append row to sheet", AutomationSolution: "spreadsheet write"},
		},
	}
}

func TestAnalyzeComplexityClassifiesSimpleJobs(t *testing.T) {
	analysis := AnalyzeComplexity(nil, simpleJob())

	assert.Equal(t, models.ComplexitySimple, analysis.Complexity)
	assert.False(t, analysis.NeedsAI)
}

func TestAnalyzeComplexityDetectsCapabilities(t *testing.T) {
	analysis := AnalyzeComplexity(nil, emailSheetJob())

	assert.True(t, analysis.NeedsEmail)
	assert.True(t, analysis.NeedsAI)
	assert.True(t, analysis.NeedsDataStore)
	assert.NotEmpty(t, analysis.Reasons)
	assert.GreaterOrEqual(t, analysis.Score, mediumThreshold)
}

func TestAnalyzeComplexityCountsPlanSteps(t *testing.T) {
	plan := &models.OrchestrationPlan{
		WorkflowName: "Huge",
		Steps: []models.PlanStep{
			{ID: "1", Name: "a", Type: "ai_analysis"},
			{ID: "2", Name: "b", Type: "transform"},
			{ID: "3", Name: "c", Type: "data_storage"},
			{ID: "4", Name: "d", Type: "data_storage"},
			{ID: "5", Name: "e", Type: "notification"},
			{ID: "6", Name: "f", Type: "conditional"},
		},
	}

	analysis := AnalyzeComplexity(plan, emailSheetJob())
	assert.Equal(t, models.ComplexityHigh, analysis.Complexity)
}

func TestGetContextBudgetScalesWithTier(t *testing.T) {
	free := GetContextBudget(models.ComplexitySimple, models.PlanTierFree)
	starter := GetContextBudget(models.ComplexitySimple, models.PlanTierStarter)
	enterprise := GetContextBudget(models.ComplexityHigh, models.PlanTierEnterprise)

	assert.Less(t, free, starter)
	assert.Equal(t, 2048, starter)
	assert.Equal(t, 8192*150/100, enterprise)

	// Unknown inputs fall back to the medium/100% defaults.
	assert.Equal(t, 4096, GetContextBudget("weird", "unknown-tier"))
}

func TestGetOptimizedContextBoundsDocumentation(t *testing.T) {
	config := GetOptimizedContext(nil, emailSheetJob())

	require.Positive(t, config.NodeCount)
	require.Positive(t, config.CharsPerDoc)
	assert.Contains(t, config.FocusNodeTypes, models.NodeTypeEmailSend)
	assert.Contains(t, config.FocusAreas, "AI text classification")
	assert.Equal(t, "ai-email", config.WorkflowType)

	plain := GetOptimizedContext(nil, simpleJob())
	assert.Equal(t, []string{models.NodeTypeHTTPRequest, models.NodeTypeSet}, plain.FocusNodeTypes)
	assert.LessOrEqual(t, plain.CharsPerDoc, config.CharsPerDoc)
}
