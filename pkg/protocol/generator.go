// Package protocol defines the interfaces between the generation pipeline
// and its collaborators.
package protocol

import (
	"context"

	"github.com/flowforge/flowforge/pkg/models"
)

// Generator turns an orchestration plan into a workflow graph. Two
// implementations exist: the AI-backed generator and the deterministic
// blueprint assembler. Callers choose one explicitly; the strategies are
// never interleaved.
type Generator interface {
	Generate(
		ctx context.Context,
		plan *models.OrchestrationPlan,
		job *models.AutomationJob,
	) (*models.WorkflowGraph, error)
}
