package validation

import (
	"encoding/json"
	"testing"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repairLogger = log.WithModule("repair-test")

func TestRepairRewritesStaleConnectionEndpoints(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Stale",
		Nodes: []*models.GraphNode{
			{ID: "node-1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "node-2", Name: "Transform", Type: models.NodeTypeSet, Parameters: map[string]any{}},
		},
		Connections: map[string]*models.NodeConnections{
			// Endpoints reference ids instead of display names.
			"node-1": {Main: [][]models.ConnectionTarget{{{Node: "node-2", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	require.Contains(t, graph.Connections, "Webhook")
	assert.Equal(t, "Transform", graph.Connections["Webhook"].Main[0][0].Node)
	assert.True(t, Validate(graph).Valid)
}

func TestRepairMergesCollidingConnectionKeys(t *testing.T) {
	// "node-1" and "Webhook" resolve to the same node; neither edge may be
	// dropped, regardless of map iteration order.
	graph := &models.WorkflowGraph{
		Name: "Colliding",
		Nodes: []*models.GraphNode{
			{ID: "node-1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "node-2", Name: "Transform", Type: models.NodeTypeSet, Parameters: map[string]any{}},
			{ID: "node-3", Name: "Store", Type: models.NodeTypeSheets, Parameters: map[string]any{}},
		},
		Connections: map[string]*models.NodeConnections{
			"node-1":  {Main: [][]models.ConnectionTarget{{{Node: "Transform", Type: "main", Index: 0}}}},
			"Webhook": {Main: [][]models.ConnectionTarget{{{Node: "Store", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	require.Contains(t, graph.Connections, "Webhook")

	targets := make(map[string]bool)
	for _, slot := range graph.Connections["Webhook"].Main {
		for _, target := range slot {
			targets[target.Node] = true
		}
	}

	assert.True(t, targets["Transform"])
	assert.True(t, targets["Store"])
	assert.True(t, Validate(graph).Valid)
}

func TestRepairPrunesUnresolvableAndSynthesizesChain(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Broken",
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "2", Name: "Transform", Type: models.NodeTypeSet, Parameters: map[string]any{}},
			{ID: "3", Name: "Store", Type: models.NodeTypeSheets, Parameters: map[string]any{}},
		},
		Connections: map[string]*models.NodeConnections{
			"Deleted Node": {Main: [][]models.ConnectionTarget{{{Node: "Also Gone", Type: "main", Index: 0}}}},
			"Webhook":      {Main: [][]models.ConnectionTarget{{{Node: "Renamed Away", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	// Everything was pruned, so a linear chain over the three nodes remains.
	require.Len(t, graph.Connections, 2)
	assert.Equal(t, "Transform", graph.Connections["Webhook"].Main[0][0].Node)
	assert.Equal(t, "Store", graph.Connections["Transform"].Main[0][0].Node)
	assert.True(t, Validate(graph).Valid)
}

func TestRepairBackfillsHTTPRetryPolicy(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Retry",
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "2", Name: "Call API", Type: models.NodeTypeHTTPRequest, Parameters: map[string]any{
				"url":     "https://example.com",
				"options": map[string]any{},
			}},
		},
		Connections: map[string]*models.NodeConnections{
			"Webhook": {Main: [][]models.ConnectionTarget{{{Node: "Call API", Type: "main", Index: 0}}}},
		},
	}

	require.False(t, Validate(graph).Valid)

	Repair(graph, repairLogger)

	node, ok := graph.NodeByName("Call API")
	require.True(t, ok)
	assert.Equal(t, true, node.Parameters["retryOnFail"])
	assert.GreaterOrEqual(t, intParam(node, "maxRetries"), 1)
	assert.True(t, Validate(graph).Valid)
}

func TestRepairResolvesTerminalNodes(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Terminal",
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Call API", Type: models.NodeTypeHTTPRequest, Parameters: map[string]any{
				"url": "https://example.com",
			}},
			{ID: "2", Name: "Notify", Type: models.NodeTypeEmailSend, Parameters: map[string]any{}},
		},
		Connections: map[string]*models.NodeConnections{
			"Call API": {Main: [][]models.ConnectionTarget{{{Node: "Notify", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	// Email node is flagged terminal, with neutral required fields filled in.
	notify, ok := graph.NodeByName("Notify")
	require.True(t, ok)
	assert.Equal(t, true, notify.Parameters["terminal"])
	assert.Equal(t, repairedEmailTo, notify.Parameters["to"])
	assert.NotEmpty(t, notify.Parameters["subject"])

	assert.True(t, Validate(graph).Valid, "errors: %v", Validate(graph).Errors)
}

func TestRepairAppendsPassThroughAfterTerminalHTTPNode(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Terminal HTTP",
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "2", Name: "Call API", Type: models.NodeTypeHTTPRequest, Parameters: map[string]any{
				"url": "https://example.com",
			}},
		},
		Connections: map[string]*models.NodeConnections{
			"Webhook": {Main: [][]models.ConnectionTarget{{{Node: "Call API", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	require.Len(t, graph.Nodes, 3)
	successor := graph.Nodes[2]
	assert.Equal(t, models.NodeTypeNoOp, successor.Type)
	assert.True(t, graph.IsConnectionSource("Call API"))
	assert.True(t, Validate(graph).Valid)
}

func TestRepairIsIdempotent(t *testing.T) {
	graph := &models.WorkflowGraph{
		Name: "Idempotent",
		Nodes: []*models.GraphNode{
			{ID: "node-1", Name: "Webhook", Type: models.NodeTypeWebhook, Parameters: map[string]any{}},
			{ID: "node-2", Name: "Call API", Type: models.NodeTypeHTTPRequest, Parameters: map[string]any{
				"url": "https://example.com",
			}},
			{ID: "node-3", Name: "Notify", Type: models.NodeTypeEmailSend, Parameters: map[string]any{}},
		},
		Connections: map[string]*models.NodeConnections{
			"node-1": {Main: [][]models.ConnectionTarget{{{Node: "node-2", Type: "main", Index: 0}}}},
			"node-2": {Main: [][]models.ConnectionTarget{{{Node: "stale-ref", Type: "main", Index: 0}}}},
		},
	}

	Repair(graph, repairLogger)

	first, err := json.Marshal(graph)
	require.NoError(t, err)

	Repair(graph, repairLogger)

	second, err := json.Marshal(graph)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}
