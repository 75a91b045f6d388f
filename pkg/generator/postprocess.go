package generator

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
)

const generatorVersion = "1.0.0"

// stepNodeTypes maps platform-agnostic plan step types to concrete node
// types. Unknown step types fall back to a Set node, which is harmless in
// any position of a chain.
var stepNodeTypes = map[string]string{
	"email":        models.NodeTypeEmailSend,
	"notification": models.NodeTypeEmailSend,
	"sheet":        models.NodeTypeSheets,
	"spreadsheet":  models.NodeTypeSheets,
	"storage":      models.NodeTypeAirtable,
	"record":       models.NodeTypeAirtable,
	"database":     models.NodeTypeAirtable,
	"ai":           models.NodeTypeOpenAI,
	"conditional":  models.NodeTypeIf,
	"http":         models.NodeTypeHTTPRequest,
	"api":          models.NodeTypeHTTPRequest,
	"code":         models.NodeTypeCode,
	"transform":    models.NodeTypeSet,
}

func nodeTypeForStep(stepType string) string {
	if nodeType, ok := stepNodeTypes[strings.ToLower(stepType)]; ok {
		return nodeType
	}

	return models.NodeTypeSet
}

// postProcess normalizes an AI-produced graph in place: backfills identity
// fields from the plan, synthesizes nodes and connections when the response
// omitted them, hardens webhook triggers, and stamps provenance metadata.
func (g *AIGenerator) postProcess(graph *models.WorkflowGraph, plan *models.OrchestrationPlan, job *models.AutomationJob) {
	if graph.Name == "" {
		graph.Name = plan.WorkflowName
	}

	if graph.Description == "" {
		graph.Description = plan.Description
	}

	if len(graph.Nodes) == 0 {
		g.synthesizeFromPlan(graph, plan, job)
	}

	if graph.Connections == nil {
		graph.Connections = map[string]*models.NodeConnections{}
	}

	g.hardenWebhooks(graph, job)
	stampMeta(graph, plan)
}

// synthesizeFromPlan builds a linear trigger-plus-steps chain directly from
// the plan when the AI response contained no nodes at all.
func (g *AIGenerator) synthesizeFromPlan(graph *models.WorkflowGraph, plan *models.OrchestrationPlan, job *models.AutomationJob) {
	g.logger.Warn("Response contained no nodes, synthesizing from plan", "job_id", job.ID)

	nodes := make([]*models.GraphNode, 0, len(plan.Steps)+1)

	trigger := &models.GraphNode{
		ID:          "trigger",
		Name:        "Workflow Trigger",
		Type:        models.NodeTypeWebhook,
		TypeVersion: 1,
		Parameters:  map[string]any{},
	}
	if len(plan.Triggers) > 0 && plan.Triggers[0].Type == "schedule" {
		trigger.Type = models.NodeTypeSchedule
	}

	nodes = append(nodes, trigger)

	for i, step := range plan.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("Step %d", i+1)
		}

		parameters := map[string]any{}
		for key, value := range step.Configuration {
			parameters[key] = value
		}

		nodes = append(nodes, &models.GraphNode{
			ID:          step.ID,
			Name:        name,
			Type:        nodeTypeForStep(step.Type),
			TypeVersion: 1,
			Parameters:  parameters,
		})
	}

	for i, node := range nodes {
		node.Position = [2]float64{250 + float64(i)*220, 300}
	}

	connections := make(map[string]*models.NodeConnections, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		connections[nodes[i].Name] = &models.NodeConnections{
			Main: [][]models.ConnectionTarget{{
				{Node: nodes[i+1].Name, Type: "main", Index: 0},
			}},
		}
	}

	graph.Nodes = nodes
	graph.Connections = connections
}

// hardenWebhooks gives every webhook trigger a deterministic path, an
// explicit method, and a synchronous response. Webhooks without credentials
// are left open deliberately, and loudly.
func (g *AIGenerator) hardenWebhooks(graph *models.WorkflowGraph, job *models.AutomationJob) {
	for _, node := range graph.Nodes {
		if node.Type != models.NodeTypeWebhook {
			continue
		}

		if node.Parameters == nil {
			node.Parameters = map[string]any{}
		}

		if stringValue(node.Parameters, "path") == "" {
			node.Parameters["path"] = "flowforge/" + job.ID
		}

		if stringValue(node.Parameters, "httpMethod") == "" {
			node.Parameters["httpMethod"] = "POST"
		}

		if stringValue(node.Parameters, "responseMode") == "" {
			node.Parameters["responseMode"] = "onReceived"
			node.Parameters["responseCode"] = 200
		}

		if stringValue(node.Parameters, "authentication") == "" {
			if _, ok := node.Credentials["httpHeaderAuth"]; ok {
				node.Parameters["authentication"] = "headerAuth"
			} else {
				node.Parameters["authentication"] = "none"
				g.logger.Warn("Webhook trigger has no authentication",
					"job_id", job.ID,
					"node", node.Name,
				)
			}
		}
	}
}

func stampMeta(graph *models.WorkflowGraph, plan *models.OrchestrationPlan) {
	graph.Meta = &models.GraphMeta{
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: "flowforge-ai",
		Version:     generatorVersion,
		PlanHash:    planHash(plan),
	}
}

// planHash fingerprints the plan with FNV-1a. It ties a graph back to the
// exact plan it was generated from; it is not a security measure.
func planHash(plan *models.OrchestrationPlan) string {
	encoded, err := json.Marshal(plan)
	if err != nil {
		return ""
	}

	h := fnv.New64a()
	_, _ = h.Write(encoded)

	return fmt.Sprintf("%016x", h.Sum64())
}

func stringValue(params map[string]any, key string) string {
	if value, ok := params[key].(string); ok {
		return value
	}

	return ""
}
