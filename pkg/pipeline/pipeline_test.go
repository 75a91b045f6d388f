package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/events"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/orchestrator"
	"github.com/flowforge/flowforge/pkg/protocol"
	"github.com/flowforge/flowforge/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	percent int
	status  protocol.ProgressStatus
	message string
}

type fakeProgress struct {
	calls []progressCall
}

func (f *fakeProgress) UpdateProgress(
	_ context.Context,
	_ string,
	percent int,
	status protocol.ProgressStatus,
	message string,
) error {
	f.calls = append(f.calls, progressCall{percent: percent, status: status, message: message})

	return nil
}

type fakeAutomations struct {
	saved []*models.AutomationArtifact
	err   error
}

func (f *fakeAutomations) SaveAutomation(_ context.Context, _ string, artifact *models.AutomationArtifact) error {
	if f.err != nil {
		return f.err
	}

	f.saved = append(f.saved, artifact)

	return nil
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)

	return nil
}

type fakeGenerator struct {
	graph *models.WorkflowGraph
	err   error
}

func (f *fakeGenerator) Generate(
	_ context.Context,
	_ *models.OrchestrationPlan,
	_ *models.AutomationJob,
) (*models.WorkflowGraph, error) {
	return f.graph, f.err
}

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Name() string  { return "openai" }
func (s *stubClient) Model() string { return "gpt-4o-mini" }

func (s *stubClient) Complete(_ context.Context, _ providers.Request) (*providers.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &providers.Response{Text: s.text, Model: "gpt-4o-mini", InputTokens: 10, OutputTokens: 10}, nil
}

func validGraph() *models.WorkflowGraph {
	return &models.WorkflowGraph{
		Name: "Order Intake",
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Hook", Type: models.NodeTypeWebhook, Parameters: map[string]any{"path": "flowforge/job-1"}},
		},
		Connections: map[string]*models.NodeConnections{},
		Meta:        &models.GraphMeta{GeneratedBy: "flowforge-ai", PlanHash: "00000000deadbeef"},
	}
}

func newTestPipeline(t *testing.T, gen protocol.Generator) (*Pipeline, *fakeProgress, *fakeAutomations, *fakePublisher) {
	t.Helper()

	logger := log.WithModule("pipeline-test")
	monitor := costs.NewMonitor(costs.Config{}, logger)
	t.Cleanup(monitor.Close)

	router := providers.NewRouter(monitor, logger, &stubClient{text: "not json, forces the fallback plan"})

	progress := &fakeProgress{}
	automations := &fakeAutomations{}
	publisher := &fakePublisher{}

	p := New(Config{
		Orchestrator: orchestrator.New(nil, router, logger),
		Generator:    gen,
		Progress:     progress,
		Automations:  automations,
		Publisher:    publisher,
		Logger:       logger,
		WorkerID:     "worker-test",
	})

	return p, progress, automations, publisher
}

func testJob() *models.AutomationJob {
	return &models.AutomationJob{
		ID:          "job-1",
		ProcessData: models.ProcessData{Description: "Route new orders"},
	}
}

func TestProcessHappyPath(t *testing.T) {
	p, progress, automations, publisher := newTestPipeline(t, &fakeGenerator{graph: validGraph()})

	err := p.Process(context.Background(), testJob())
	require.NoError(t, err)

	require.Len(t, progress.calls, 4)
	assert.Equal(t, protocol.CheckpointPlanning, progress.calls[0].percent)
	assert.Equal(t, protocol.CheckpointGenerating, progress.calls[1].percent)
	assert.Equal(t, protocol.CheckpointValidating, progress.calls[2].percent)
	assert.Equal(t, protocol.CheckpointDone, progress.calls[3].percent)
	assert.Equal(t, protocol.ProgressCompleted, progress.calls[3].status)

	require.Len(t, automations.saved, 1)
	assert.Equal(t, "Order Intake", automations.saved[0].Name)
	assert.Equal(t, models.PlatformN8N, automations.saved[0].Platform)
	assert.Equal(t, "00000000deadbeef", automations.saved[0].Metadata["plan_hash"])

	types := make([]events.EventType, 0, len(publisher.published))
	for _, event := range publisher.published {
		types = append(types, event.GetType())
	}

	assert.Equal(t, []events.EventType{
		events.GenerationStartedEvent,
		events.PlanCreatedEvent,
		events.GenerationCompletedEvent,
	}, types)
}

func TestProcessMarksFallbackPlans(t *testing.T) {
	p, _, _, publisher := newTestPipeline(t, &fakeGenerator{graph: validGraph()})

	require.NoError(t, p.Process(context.Background(), testJob()))

	var planCreated *events.PlanCreated

	for _, event := range publisher.published {
		if pc, ok := event.(events.PlanCreated); ok {
			planCreated = &pc
		}
	}

	require.NotNil(t, planCreated)
	assert.True(t, planCreated.UsedFallback)
	assert.Equal(t, 7, planCreated.StepCount)
}

func TestProcessGenerationFailure(t *testing.T) {
	genErr := errors.New("model produced nothing usable")
	p, progress, automations, publisher := newTestPipeline(t, &fakeGenerator{err: genErr})

	err := p.Process(context.Background(), testJob())
	require.ErrorIs(t, err, genErr)

	assert.Empty(t, automations.saved)

	last := progress.calls[len(progress.calls)-1]
	assert.Equal(t, protocol.ProgressFailed, last.status)
	assert.Equal(t, genErr.Error(), last.message)

	failed, ok := publisher.published[len(publisher.published)-1].(events.GenerationFailed)
	require.True(t, ok)
	assert.Equal(t, "generation", failed.Stage)
}

func TestProcessClassifiesValidationFailure(t *testing.T) {
	valErr := &generator.ValidationError{Violations: []string{"email node \"Notify\" is missing required field \"to\""}}
	p, _, _, publisher := newTestPipeline(t, &fakeGenerator{err: valErr})

	err := p.Process(context.Background(), testJob())
	require.Error(t, err)

	failed, ok := publisher.published[len(publisher.published)-1].(events.GenerationFailed)
	require.True(t, ok)
	assert.Equal(t, "validation", failed.Stage)
}

func TestProcessPersistenceFailure(t *testing.T) {
	p, progress, automations, _ := newTestPipeline(t, &fakeGenerator{graph: validGraph()})
	automations.err = errors.New("connection refused")

	err := p.Process(context.Background(), testJob())
	require.Error(t, err)

	last := progress.calls[len(progress.calls)-1]
	assert.Equal(t, protocol.ProgressFailed, last.status)
	assert.Contains(t, last.message, "connection refused")
}
