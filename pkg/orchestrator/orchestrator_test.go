package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	name  string
	model string
	text  string
	err   error
}

func (s *stubClient) Name() string  { return s.name }
func (s *stubClient) Model() string { return s.model }

func (s *stubClient) Complete(_ context.Context, _ providers.Request) (*providers.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &providers.Response{
		Text:         s.text,
		Model:        s.model,
		InputTokens:  100,
		OutputTokens: 50,
	}, nil
}

func newTestOrchestrator(t *testing.T, responseText string, responseErr error) *Orchestrator {
	t.Helper()

	logger := log.WithModule("orchestrator-test")
	monitor := costs.NewMonitor(costs.Config{}, logger)
	t.Cleanup(monitor.Close)

	router := providers.NewRouter(monitor, logger,
		&stubClient{name: "openai", model: "gpt-4o-mini", text: responseText, err: responseErr},
		&stubClient{name: "anthropic", model: "claude-haiku-3-5", text: responseText, err: responseErr},
	)

	return New(nil, router, logger)
}

func testJob() *models.AutomationJob {
	return &models.AutomationJob{
		ID: "job-42",
		ProcessData: models.ProcessData{
			Description: "Email new orders to the sales team and store them in a spreadsheet",
		},
		AutomationOpportunities: []models.AutomationOpportunity{
			{StepDescription: "Send confirmation email", AutomationSolution: "email notification"},
		},
	}
}

func TestInitializeWithoutDiscoveryDegrades(t *testing.T) {
	o := newTestOrchestrator(t, "", nil)

	assert.Equal(t, StateUninitialized, o.State())
	assert.Equal(t, StateDegraded, o.Initialize(context.Background()))
	assert.Equal(t, StateDegraded, o.State())

	// Initialize is idempotent once a terminal state is reached.
	assert.Equal(t, StateDegraded, o.Initialize(context.Background()))
}

func TestAnalyzeRequirementsFlagsCapabilities(t *testing.T) {
	o := newTestOrchestrator(t, "", nil)

	req := o.AnalyzeRequirements(testJob())

	assert.True(t, req.NeedsEmail)
	assert.True(t, req.NeedsDataStore)
	assert.True(t, req.NeedsNotification)
	assert.NotEmpty(t, req.Reasons)
}

func TestDiscoverRelevantNodesRankedAndDeduplicated(t *testing.T) {
	o := newTestOrchestrator(t, "", nil)

	candidates := o.DiscoverRelevantNodes(context.Background(), Requirements{
		NeedsEmail:     true,
		NeedsDataStore: true,
	})

	require.NotEmpty(t, candidates)
	assert.Equal(t, models.NodeTypeWebhook, candidates[0].NodeType)

	seen := make(map[string]bool)
	for _, c := range candidates {
		assert.False(t, seen[c.NodeType], "duplicate candidate %s", c.NodeType)
		assert.NotEmpty(t, c.Justification)
		seen[c.NodeType] = true
	}

	assert.True(t, seen[models.NodeTypeEmailSend])
	assert.True(t, seen[models.NodeTypeSheets])
}

func TestCreatePlanParsesAIResponse(t *testing.T) {
	response := "```json\n" + `{
		"workflowName": "Order Intake",
		"description": "Handle incoming orders",
		"triggers": [{"type": "webhook", "configuration": {"path": "orders"}}],
		"steps": [
			{"id": "store", "name": "Store Order", "type": "storage", "configuration": {}},
			{"id": "confirm", "name": "Confirm", "type": "email", "configuration": {}}
		],
		"connections": [{"from": "store", "to": "confirm"}],
		"errorHandling": "notify on failure"
	}` + "\n```"

	o := newTestOrchestrator(t, response, nil)

	plan, err := o.CreatePlan(context.Background(), testJob())
	require.NoError(t, err)

	assert.Equal(t, "Order Intake", plan.WorkflowName)
	assert.Len(t, plan.Steps, 2)
	assert.Len(t, plan.Triggers, 1)
	assert.NotEmpty(t, plan.Complexity)
}

func TestCreatePlanSubstitutesFallbackOnGarbage(t *testing.T) {
	o := newTestOrchestrator(t, "I cannot produce JSON today.", nil)

	plan, err := o.CreatePlan(context.Background(), testJob())
	require.NoError(t, err)

	assert.Len(t, plan.Steps, 7)
	assert.Len(t, plan.Connections, 6)
	assert.Len(t, plan.Triggers, 1)
	assert.NotEmpty(t, plan.ErrorHandling)
}

func TestCreatePlanSubstitutesFallbackOnIncompletePlan(t *testing.T) {
	// Valid JSON but no steps: still substitutes, never errors.
	o := newTestOrchestrator(t, `{"workflowName": "X", "triggers": [{"type": "webhook"}], "steps": []}`, nil)

	plan, err := o.CreatePlan(context.Background(), testJob())
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 7)
}

func TestFallbackPlanIsDeterministic(t *testing.T) {
	first := FallbackPlan(testJob())
	second := FallbackPlan(testJob())

	assert.Equal(t, first, second)

	for _, conn := range first.Connections {
		_, ok := first.StepByID(conn.From)
		assert.True(t, ok, "connection source %s missing", conn.From)
		_, ok = first.StepByID(conn.To)
		assert.True(t, ok, "connection target %s missing", conn.To)
	}
}

func TestFallbackPlanNameTruncatesOnRuneBoundary(t *testing.T) {
	// 48 bytes lands mid-rune in this description; the name must stay
	// valid UTF-8.
	job := testJob()
	job.ProcessData.Description = "x" + strings.Repeat("日", 20)

	plan := FallbackPlan(job)

	assert.True(t, utf8.ValidString(plan.WorkflowName))
	assert.Equal(t, "Automated: x"+strings.Repeat("日", 15), plan.WorkflowName)
}

func TestCreatePlanSurfacesProviderExhaustion(t *testing.T) {
	o := newTestOrchestrator(t, "", errors.New("rate limited"))

	_, err := o.CreatePlan(context.Background(), testJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrProviderExhausted)
}
