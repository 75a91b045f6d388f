package orchestrator

import (
	"unicode/utf8"

	"github.com/flowforge/flowforge/pkg/models"
)

// FallbackPlan returns the canonical seven-step plan used whenever the AI
// planning call produces an unusable result. It is a pure function of the
// job: the same input always yields the same plan.
func FallbackPlan(job *models.AutomationJob) *models.OrchestrationPlan {
	name := "Automated Process"
	if job.ProcessData.Description != "" {
		name = "Automated: " + truncate(job.ProcessData.Description, 48)
	}

	return &models.OrchestrationPlan{
		WorkflowName: name,
		Description:  "Standard intake, analysis, storage and notification flow",
		Triggers: []models.PlanTrigger{
			{
				Type: "webhook",
				Configuration: map[string]any{
					"path":   "flowforge/" + job.ID,
					"method": "POST",
				},
			},
		},
		Steps: []models.PlanStep{
			{
				ID:   "ai-analysis",
				Name: "Analyze Request",
				Type: "ai",
				Configuration: map[string]any{
					"task": "classify and summarize the incoming request",
				},
			},
			{
				ID:   "transform",
				Name: "Normalize Fields",
				Type: "transform",
				Configuration: map[string]any{
					"fields": []string{"summary", "category", "priority"},
				},
			},
			{
				ID:   "priority-check",
				Name: "Check Priority",
				Type: "conditional",
				Configuration: map[string]any{
					"field":    "priority",
					"operator": "equals",
					"value":    "high",
				},
			},
			{
				ID:   "store-record",
				Name: "Store Record",
				Type: "storage",
				Configuration: map[string]any{
					"destination": "primary",
				},
			},
			{
				ID:   "store-archive",
				Name: "Archive Record",
				Type: "storage",
				Configuration: map[string]any{
					"destination": "archive",
				},
			},
			{
				ID:   "ai-response",
				Name: "Draft Response",
				Type: "ai",
				Configuration: map[string]any{
					"task": "draft a response for the requester",
				},
			},
			{
				ID:   "notify",
				Name: "Notify Team",
				Type: "notification",
				Configuration: map[string]any{
					"channel": "email",
				},
			},
		},
		Connections: []models.PlanConnection{
			{From: "ai-analysis", To: "transform"},
			{From: "transform", To: "priority-check"},
			{From: "priority-check", To: "store-record"},
			{From: "priority-check", To: "store-archive"},
			{From: "store-record", To: "ai-response"},
			{From: "ai-response", To: "notify"},
		},
		ErrorHandling: "continue-on-error with failure notification",
		Complexity:    models.ComplexityMedium,
	}
}

// truncate bounds s to limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}

	return s[:limit]
}
