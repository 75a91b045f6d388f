package blueprint

import (
	"context"
	"testing"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectLinear(t *testing.T) {
	nodes := []*models.GraphNode{
		{Name: "A"}, {Name: "B"}, {Name: "C"},
	}

	connections := ConnectLinear(nodes)

	require.Len(t, connections, 2)
	assert.Equal(t, "B", connections["A"].Main[0][0].Node)
	assert.Equal(t, "C", connections["B"].Main[0][0].Node)

	assert.Empty(t, ConnectLinear(nodes[:1]))
}

func TestAssembleWorkflowMergesBlocksAndEnv(t *testing.T) {
	assembly, err := AssembleWorkflow("Order Intake", []Block{
		WebhookTrigger("Webhook", "orders"),
		FieldSet("Normalize", map[string]string{"status": "received"}),
		EmailSend("Confirm", "Order received"),
	})
	require.NoError(t, err)

	graph := assembly.Graph
	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "Order Intake", graph.Name)
	assert.Contains(t, assembly.Env, "EMAIL_RECIPIENT")

	// Nodes are positioned left to right.
	assert.Less(t, graph.Nodes[0].Position[0], graph.Nodes[2].Position[0])

	result := validation.Validate(graph)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestAssembleWorkflowRejectsDuplicatesAndEmptyInput(t *testing.T) {
	_, err := AssembleWorkflow("", []Block{WebhookTrigger("Webhook", "x")})
	assert.Error(t, err)

	_, err = AssembleWorkflow("Empty", nil)
	assert.Error(t, err)

	_, err = AssembleWorkflow("Dup", []Block{
		WebhookTrigger("Same", "a"),
		WebhookTrigger("Same", "b"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node name")
}

func TestGeneratorProducesValidGraphFromPlan(t *testing.T) {
	generator := NewGenerator(log.WithModule("blueprint-test"))

	plan := &models.OrchestrationPlan{
		WorkflowName: "Lead Capture",
		Description:  "Capture and store leads",
		Triggers:     []models.PlanTrigger{{Type: "webhook"}},
		Steps: []models.PlanStep{
			{ID: "s1", Name: "Normalize Lead", Type: "transform"},
			{ID: "s2", Name: "Store Lead", Type: "data_storage"},
			{ID: "s3", Name: "Notify Sales", Type: "notification"},
		},
	}
	job := &models.AutomationJob{ID: "job-7", ProcessData: models.ProcessData{Description: "leads"}}

	graph, err := generator.Generate(context.Background(), plan, job)
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 4) // trigger + 3 steps
	assert.Equal(t, models.NodeTypeWebhook, graph.Nodes[0].Type)
	assert.Equal(t, models.NodeTypeAirtable, graph.Nodes[2].Type)
	assert.Equal(t, "flowforge-blueprint", graph.Meta.GeneratedBy)

	result := validation.Validate(graph)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestGeneratorIsDeterministic(t *testing.T) {
	generator := NewGenerator(log.WithModule("blueprint-test"))

	plan := &models.OrchestrationPlan{
		WorkflowName: "Repeatable",
		Triggers:     []models.PlanTrigger{{Type: "webhook"}},
		Steps:        []models.PlanStep{{ID: "s1", Name: "Do Thing", Type: "transform"}},
	}
	job := &models.AutomationJob{ID: "job-8"}

	first, err := generator.Generate(context.Background(), plan, job)
	require.NoError(t, err)

	second, err := generator.Generate(context.Background(), plan, job)
	require.NoError(t, err)

	require.Len(t, second.Nodes, len(first.Nodes))

	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].Name, second.Nodes[i].Name)
		assert.Equal(t, first.Nodes[i].Type, second.Nodes[i].Type)
	}
}

func TestGeneratorRequiresTriggerAndStep(t *testing.T) {
	generator := NewGenerator(log.WithModule("blueprint-test"))

	_, err := generator.Generate(context.Background(), &models.OrchestrationPlan{
		WorkflowName: "No Steps",
		Triggers:     []models.PlanTrigger{{Type: "webhook"}},
	}, &models.AutomationJob{ID: "j"})
	assert.Error(t, err)
}
