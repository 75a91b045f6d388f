// Package prompts assembles tenant-aware generation prompts. Everything in
// this package is pure string assembly; no network calls.
package prompts

import "github.com/flowforge/flowforge/pkg/models"

// OrganizationSettings are the plan-tier execution constraints embedded in
// the generation prompt so the model sizes workflows appropriately.
type OrganizationSettings struct {
	ExecutionTimeoutSeconds int
	ProgressTracking        bool
	SaveSuccessfulRuns      bool
	ConcurrentExecutions    int
}

var tierSettings = map[models.PlanTier]OrganizationSettings{
	models.PlanTierFree: {
		ExecutionTimeoutSeconds: 60,
		ProgressTracking:        false,
		SaveSuccessfulRuns:      false,
		ConcurrentExecutions:    1,
	},
	models.PlanTierStarter: {
		ExecutionTimeoutSeconds: 120,
		ProgressTracking:        false,
		SaveSuccessfulRuns:      true,
		ConcurrentExecutions:    2,
	},
	models.PlanTierProfessional: {
		ExecutionTimeoutSeconds: 300,
		ProgressTracking:        true,
		SaveSuccessfulRuns:      true,
		ConcurrentExecutions:    5,
	},
	models.PlanTierEnterprise: {
		ExecutionTimeoutSeconds: 900,
		ProgressTracking:        true,
		SaveSuccessfulRuns:      true,
		ConcurrentExecutions:    20,
	},
}

var tierGuidelines = map[models.PlanTier]string{
	models.PlanTierFree:         "Keep workflows simple and linear. Process 1-10 items per run.",
	models.PlanTierStarter:      "Keep workflows simple. Batch up to 50 items per run and avoid long-running loops.",
	models.PlanTierProfessional: "Workflows may branch and call external APIs freely. Batch up to 500 items per run.",
	models.PlanTierEnterprise:   "Leverage concurrent, high-performance execution. Large batches and parallel branches are expected.",
}

// GetOrganizationSettings returns the execution constraints for a plan tier.
func GetOrganizationSettings(tier models.PlanTier) OrganizationSettings {
	settings, ok := tierSettings[tier]
	if !ok {
		return tierSettings[models.PlanTierFree]
	}

	return settings
}

// GetPerformanceGuidelines returns the textual sizing guidance for a tier.
func GetPerformanceGuidelines(tier models.PlanTier) string {
	guideline, ok := tierGuidelines[tier]
	if !ok {
		return tierGuidelines[models.PlanTierFree]
	}

	return guideline
}
