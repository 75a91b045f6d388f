// Package web exposes the ops API: health, cost reporting, and a
// synchronous dry-run generation endpoint backed by the deterministic
// blueprint strategy.
package web

import "github.com/flowforge/flowforge/pkg/models"

// GenerateRequest is the body of POST /generate. When no plan is supplied
// the canonical fallback plan for the job is used, which makes the endpoint
// usable with nothing but a job description.
type GenerateRequest struct {
	Job  models.AutomationJob      `json:"job"            validate:"required"`
	Plan *models.OrchestrationPlan `json:"plan,omitempty"`
}

// GenerateResponse carries the dry-run result. The workflow is returned
// inline and never persisted.
type GenerateResponse struct {
	Workflow *models.WorkflowGraph `json:"workflow"`
	Valid    bool                  `json:"valid"`
}
