package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowforge/flowforge/pkg/models"
)

// buildArtifact wraps a validated graph into the persistable artifact,
// including operator setup instructions derived from the graph itself.
func buildArtifact(graph *models.WorkflowGraph) (*models.AutomationArtifact, error) {
	workflowJSON, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow graph: %w", err)
	}

	artifact := &models.AutomationArtifact{
		Name:         graph.Name,
		Description:  graph.Description,
		Platform:     models.PlatformN8N,
		WorkflowJSON: workflowJSON,
		Instructions: buildInstructions(graph),
		Metadata: map[string]any{
			"node_count": len(graph.Nodes),
		},
	}

	if graph.Meta != nil {
		artifact.Metadata["plan_hash"] = graph.Meta.PlanHash
		artifact.Metadata["generated_by"] = graph.Meta.GeneratedBy
	}

	return artifact, nil
}

// buildInstructions tells the operator what to configure before activating
// the workflow: webhook endpoints, credential slots, and placeholder values.
func buildInstructions(graph *models.WorkflowGraph) string {
	var lines []string

	for _, node := range graph.Nodes {
		if node.Type == models.NodeTypeWebhook {
			if path, ok := node.Parameters["path"].(string); ok && path != "" {
				lines = append(lines, fmt.Sprintf("Expose the webhook endpoint %q (%s).", path, node.Name))
			}
		}

		if len(node.Credentials) > 0 {
			for credential := range node.Credentials {
				lines = append(lines, fmt.Sprintf("Configure the %q credential used by %q.", credential, node.Name))
			}
		}

		for key, value := range node.Parameters {
			if text, ok := value.(string); ok && strings.Contains(text, "{{") {
				lines = append(lines, fmt.Sprintf("Provide a value for %s on %q (currently %s).", key, node.Name, text))
			}
		}
	}

	if len(lines) == 0 {
		return "Import the workflow and activate it; no additional setup required."
	}

	return "Before activating: " + strings.Join(lines, " ")
}
