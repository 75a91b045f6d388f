package prompts

import (
	"testing"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *models.OrchestrationPlan {
	return &models.OrchestrationPlan{
		WorkflowName: "Invoice Routing",
		Description:  "Route invoices by amount",
		Triggers:     []models.PlanTrigger{{Type: "webhook"}},
		Steps: []models.PlanStep{
			{ID: "step-1", Name: "Check Amount", Type: "conditional"},
			{ID: "step-2", Name: "Notify Finance", Type: "notification"},
		},
	}
}

func TestBuildIntelligentPromptEmbedsPlanAndContext(t *testing.T) {
	prompt, err := BuildIntelligentPrompt(testPlan(), models.BusinessContext{
		Industry:   "healthcare",
		Department: "finance",
	}, &models.OrganizationContext{OrganizationPlan: models.PlanTierEnterprise})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Invoice Routing")
	assert.Contains(t, prompt, "step-1: Check Amount (conditional)")
	assert.Contains(t, prompt, "Industry: healthcare")
	assert.Contains(t, prompt, "enterprise plan")
	assert.Contains(t, prompt, "Leverage concurrent, high-performance execution")
	assert.Contains(t, prompt, "{{placeholder}}")
}

func TestBuildIntelligentPromptIsDeterministic(t *testing.T) {
	first, err := BuildIntelligentPrompt(testPlan(), models.BusinessContext{}, nil)
	require.NoError(t, err)

	second, err := BuildIntelligentPrompt(testPlan(), models.BusinessContext{}, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildIntelligentPromptDefaultsToFreeTier(t *testing.T) {
	prompt, err := BuildIntelligentPrompt(testPlan(), models.BusinessContext{}, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "free plan")
	assert.Contains(t, prompt, "Process 1-10 items per run")
	assert.Contains(t, prompt, "Execution timeout: 60s")
}

func TestGetOrganizationSettingsScalesWithTier(t *testing.T) {
	free := GetOrganizationSettings(models.PlanTierFree)
	enterprise := GetOrganizationSettings(models.PlanTierEnterprise)

	assert.Less(t, free.ExecutionTimeoutSeconds, enterprise.ExecutionTimeoutSeconds)
	assert.False(t, free.ProgressTracking)
	assert.True(t, enterprise.ProgressTracking)

	// Unknown tiers get the most conservative settings.
	assert.Equal(t, free, GetOrganizationSettings("bespoke"))
}
