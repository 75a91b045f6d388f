package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/flowforge/flowforge/pkg/models"
)

const generationTemplate = `You are an expert n8n workflow architect.

## Goal
Generate a complete n8n workflow JSON document implementing this plan:

Workflow: {{.Plan.WorkflowName}}
{{.Plan.Description}}

### Triggers
{{- range .Plan.Triggers}}
- type: {{.Type}}
{{- end}}

### Steps
{{- range .Plan.Steps}}
- {{.ID}}: {{.Name}} ({{.Type}})
{{- end}}

## Business context
Industry: {{or .Business.Industry "unspecified"}}
Department: {{or .Business.Department "unspecified"}}
Volume: {{or .Business.Volume "unspecified"}}
Process complexity: {{or .Business.Complexity "unspecified"}}

## Tenant constraints ({{.Tier}} plan)
- Execution timeout: {{.Settings.ExecutionTimeoutSeconds}}s
- Progress tracking: {{if .Settings.ProgressTracking}}enabled{{else}}disabled{{end}}
- Concurrent executions: {{.Settings.ConcurrentExecutions}}
{{.Guidelines}}

## Output rules
- Respond with a single JSON object, no markdown fences, no commentary.
- Top-level keys: name, nodes, connections, settings.
- Node names must be unique. Connections are keyed by source node name.
- Never embed literal credentials; use {{"{{placeholder}}"}} expressions.
`

// builderTemplate is parsed once; rendering is deterministic for identical
// inputs.
var builderTemplate = template.Must(template.New("generation").Parse(generationTemplate))

type templateData struct {
	Plan       *models.OrchestrationPlan
	Business   models.BusinessContext
	Tier       models.PlanTier
	Settings   OrganizationSettings
	Guidelines string
}

// BuildIntelligentPrompt renders the structured generation prompt embedding
// the plan, the business context, and tenant-plan constraints.
func BuildIntelligentPrompt(
	plan *models.OrchestrationPlan,
	business models.BusinessContext,
	org *models.OrganizationContext,
) (string, error) {
	tier := models.PlanTierFree
	if org != nil && org.OrganizationPlan != "" {
		tier = org.OrganizationPlan
	}

	data := templateData{
		Plan:       plan,
		Business:   business,
		Tier:       tier,
		Settings:   GetOrganizationSettings(tier),
		Guidelines: GetPerformanceGuidelines(tier),
	}

	var buf strings.Builder

	err := builderTemplate.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to render generation prompt: %w", err)
	}

	return buf.String(), nil
}
