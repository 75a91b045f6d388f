package blueprint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
)

// Generator is the deterministic strategy: it maps plan steps straight to
// blueprint blocks without any AI involvement. Same plan in, same graph out.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate assembles a workflow from the plan's triggers and steps using the
// block factories.
func (g *Generator) Generate(
	ctx context.Context,
	plan *models.OrchestrationPlan,
	job *models.AutomationJob,
) (*models.WorkflowGraph, error) {
	if plan == nil || len(plan.Steps) == 0 || len(plan.Triggers) == 0 {
		return nil, fmt.Errorf("blueprint generation requires a plan with at least one trigger and one step")
	}

	blocks := make([]Block, 0, len(plan.Steps)+1)
	blocks = append(blocks, WebhookTrigger("Webhook Trigger", "flowforge/"+job.ID))

	for _, step := range plan.Steps {
		blocks = append(blocks, blockForStep(step))
	}

	assembly, err := AssembleWorkflow(plan.WorkflowName, blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble blueprint workflow: %w", err)
	}

	assembly.Graph.Description = plan.Description
	assembly.Graph.Meta = &models.GraphMeta{
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: "flowforge-blueprint",
		Version:     "1.0",
	}

	g.logger.Info("Assembled blueprint workflow",
		"job_id", job.ID,
		"nodes", len(assembly.Graph.Nodes),
		"env_placeholders", len(assembly.Env),
	)

	return assembly.Graph, nil
}

// blockForStep maps a plan step type onto a blueprint block. Unknown types
// become field-set transforms carrying the step name.
func blockForStep(step models.PlanStep) Block {
	name := step.Name
	stepType := strings.ToLower(step.Type)

	switch {
	case strings.Contains(stepType, "email") || strings.Contains(stepType, "notification"):
		return EmailSend(name, "Workflow update: "+name)
	case strings.Contains(stepType, "sheet") || strings.Contains(stepType, "spreadsheet"):
		return SheetAppend(name, []string{"timestamp", "summary"})
	case strings.Contains(stepType, "storage") || strings.Contains(stepType, "record") || strings.Contains(stepType, "database"):
		return RecordUpsert(name, "Records")
	case strings.Contains(stepType, "http") || strings.Contains(stepType, "api") || strings.Contains(stepType, "webhook_call"):
		block := HTTPRequest(name, "POST", "{{TARGET_API_URL}}")
		block.Env = map[string]string{"TARGET_API_URL": "endpoint called by " + name}

		return block
	default:
		return FieldSet(name, map[string]string{"step": name})
	}
}
