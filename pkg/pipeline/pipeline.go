// Package pipeline runs one automation job end to end: plan, generate,
// persist, with progress checkpoints and lifecycle events along the way.
// Stages are strictly sequential; each consumes the previous stage's output.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/flowforge/flowforge/pkg/eventbus"
	"github.com/flowforge/flowforge/pkg/events"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/orchestrator"
	"github.com/flowforge/flowforge/pkg/otelhelper"
	"github.com/flowforge/flowforge/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Pipeline wires the generation stages together. All collaborators are
// injected; the pipeline owns no state beyond them.
type Pipeline struct {
	orchestrator *orchestrator.Orchestrator
	generator    protocol.Generator
	progress     protocol.ProgressSink
	automations  protocol.AutomationSink
	publisher    eventbus.Publisher
	tracer       trace.Tracer
	logger       *slog.Logger
	workerID     string
}

type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Generator    protocol.Generator
	Progress     protocol.ProgressSink
	Automations  protocol.AutomationSink
	Publisher    eventbus.Publisher
	Tracer       trace.Tracer
	Logger       *slog.Logger
	WorkerID     string
}

func New(config Config) *Pipeline {
	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pipeline")
	}

	return &Pipeline{
		orchestrator: config.Orchestrator,
		generator:    config.Generator,
		progress:     config.Progress,
		automations:  config.Automations,
		publisher:    config.Publisher,
		tracer:       tracer,
		logger:       config.Logger.With("module", "pipeline"),
		workerID:     config.WorkerID,
	}
}

// Process runs the job through every stage. A returned error means the job
// failed terminally for this delivery; the queue layer decides about
// redelivery.
func (p *Pipeline) Process(ctx context.Context, job *models.AutomationJob) error {
	started := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pipeline.process",
		attribute.String(otelhelper.JobIDKey, job.ID),
		attribute.String(otelhelper.TierKey, string(job.Plan())),
		attribute.String(otelhelper.WorkerIDKey, p.workerID),
	)
	defer span.End()

	p.publish(ctx, events.GenerationStarted{
		BaseEvent: p.baseEvent(events.GenerationStartedEvent, job.ID),
		Tier:      string(job.Plan()),
	})

	p.checkpoint(ctx, job.ID, protocol.CheckpointPlanning, protocol.ProgressProcessing)

	plan, err := p.plan(ctx, job)
	if err != nil {
		return p.fail(ctx, span, job, "planning", err)
	}

	p.checkpoint(ctx, job.ID, protocol.CheckpointGenerating, protocol.ProgressProcessing)

	graph, err := p.generate(ctx, plan, job)
	if err != nil {
		stage := "generation"
		if generator.IsValidationError(err) {
			stage = "validation"
		}

		return p.fail(ctx, span, job, stage, err)
	}

	p.checkpoint(ctx, job.ID, protocol.CheckpointValidating, protocol.ProgressProcessing)

	artifact, err := buildArtifact(graph)
	if err != nil {
		return p.fail(ctx, span, job, "persistence", err)
	}

	if err := p.persist(ctx, job, artifact); err != nil {
		return p.fail(ctx, span, job, "persistence", err)
	}

	p.checkpoint(ctx, job.ID, protocol.CheckpointDone, protocol.ProgressCompleted)

	completed := events.GenerationCompleted{
		BaseEvent:    p.baseEvent(events.GenerationCompletedEvent, job.ID),
		WorkflowName: graph.Name,
		NodeCount:    len(graph.Nodes),
		Duration:     time.Since(started),
	}
	if graph.Meta != nil {
		completed.PlanHash = graph.Meta.PlanHash
	}

	p.publish(ctx, completed)

	p.logger.InfoContext(ctx, "Job completed",
		"job_id", job.ID,
		"workflow_name", graph.Name,
		"duration", time.Since(started),
	)

	return nil
}

func (p *Pipeline) plan(ctx context.Context, job *models.AutomationJob) (*models.OrchestrationPlan, error) {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pipeline.plan",
		attribute.String(otelhelper.JobIDKey, job.ID),
		attribute.String(otelhelper.StageKey, "planning"),
	)
	defer span.End()

	plan, err := p.orchestrator.CreatePlan(ctx, job)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	p.publish(ctx, events.PlanCreated{
		BaseEvent:    p.baseEvent(events.PlanCreatedEvent, job.ID),
		WorkflowName: plan.WorkflowName,
		StepCount:    len(plan.Steps),
		UsedFallback: reflect.DeepEqual(plan, orchestrator.FallbackPlan(job)),
	})

	return plan, nil
}

func (p *Pipeline) generate(
	ctx context.Context,
	plan *models.OrchestrationPlan,
	job *models.AutomationJob,
) (*models.WorkflowGraph, error) {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pipeline.generate",
		attribute.String(otelhelper.JobIDKey, job.ID),
		attribute.String(otelhelper.StageKey, "generation"),
	)
	defer span.End()

	graph, err := p.generator.Generate(ctx, plan, job)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return graph, nil
}

func (p *Pipeline) persist(ctx context.Context, job *models.AutomationJob, artifact *models.AutomationArtifact) error {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pipeline.persist",
		attribute.String(otelhelper.JobIDKey, job.ID),
		attribute.String(otelhelper.StageKey, "persistence"),
	)
	defer span.End()

	if err := p.automations.SaveAutomation(ctx, job.ID, artifact); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("persisting artifact for job %s: %w", job.ID, err)
	}

	return nil
}

// fail records the failure everywhere it needs to be visible and re-raises
// the error so the queue layer can schedule a retry.
func (p *Pipeline) fail(ctx context.Context, span trace.Span, job *models.AutomationJob, stage string, err error) error {
	otelhelper.SetError(span, err, attribute.String(otelhelper.StageKey, stage))

	if progressErr := p.progress.UpdateProgress(ctx, job.ID, 0, protocol.ProgressFailed, err.Error()); progressErr != nil {
		p.logger.WarnContext(ctx, "Failed to record job failure", "job_id", job.ID, "error", progressErr)
	}

	p.publish(ctx, events.GenerationFailed{
		BaseEvent: p.baseEvent(events.GenerationFailedEvent, job.ID),
		Stage:     stage,
		Error:     err.Error(),
	})

	p.logger.ErrorContext(ctx, "Job failed",
		"job_id", job.ID,
		"stage", stage,
		"error", err,
	)

	return err
}

// checkpoint reports progress. A sink hiccup must not kill the job, so
// failures are only logged.
func (p *Pipeline) checkpoint(ctx context.Context, jobID string, percent int, status protocol.ProgressStatus) {
	if err := p.progress.UpdateProgress(ctx, jobID, percent, status, ""); err != nil {
		p.logger.WarnContext(ctx, "Failed to update progress",
			"job_id", jobID,
			"percent", percent,
			"error", err,
		)
	}
}

func (p *Pipeline) publish(ctx context.Context, event events.Event) {
	if p.publisher == nil {
		return
	}

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish lifecycle event", "type", event.GetType(), "error", err)
	}
}

func (p *Pipeline) baseEvent(eventType events.EventType, jobID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, jobID)
	base.WorkerID = p.workerID

	return base
}
