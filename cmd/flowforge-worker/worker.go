package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/flowforge/flowforge/pkg/cmd"
	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/orchestrator"
	"github.com/flowforge/flowforge/pkg/otelhelper"
	"github.com/flowforge/flowforge/pkg/persistence/postgres"
	"github.com/flowforge/flowforge/pkg/pipeline"
	"github.com/flowforge/flowforge/pkg/queue"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// runWorker assembles the full pipeline and consumes the job stream until
// the process is signalled.
func runWorker(ctx context.Context, command *cli.Command, workerID string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing FlowForge worker")

	monitor := costs.NewMonitor(costs.Config{
		MaxCallCost:  command.Float("max-call-cost"),
		MaxDailyCost: command.Float("max-daily-cost"),
	}, logger)
	defer monitor.Close()

	router := cmd.NewRouter(cmd.RouterConfig{
		OpenAIKey:    command.String("openai-api-key"),
		AnthropicKey: command.String("anthropic-api-key"),
	}, monitor, logger)

	discoveryClient := cmd.NewDiscoveryClient(
		command.String("discovery-url"),
		command.String("discovery-token"),
		logger,
	)

	orch := orchestrator.New(discoveryClient, router, logger)
	orch.Initialize(ctx)
	defer orch.Cleanup(context.Background())

	persistence, err := postgres.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(
		command.String("event-bus"),
		"flowforge-worker",
		command.String("kafka-brokers"),
		logger,
	)

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	var tracer trace.Tracer

	tracer, err = otelhelper.NewTracer(ctx, "flowforge-worker")
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled", "error", err)

		tracer = nil
	}

	pipe := pipeline.New(pipeline.Config{
		Orchestrator: orch,
		Generator:    generator.New(router, discoveryClient, logger),
		Progress:     persistence,
		Automations:  persistence,
		Publisher:    eventBus,
		Tracer:       tracer,
		Logger:       logger,
		WorkerID:     workerID,
	})

	consumer, err := queue.NewConsumer(queue.Config{
		Addr:     command.String("redis-addr"),
		Password: command.String("redis-password"),
		Stream:   command.String("job-stream"),
		Group:    command.String("consumer-group"),
		Consumer: workerID,
	}, logger)
	if err != nil {
		return err
	}

	if err := consumer.Start(ctx, pipe.Process); err != nil {
		return err
	}

	<-ctx.Done()

	logger.Info("Shutting down FlowForge worker")

	return consumer.Stop(context.Background())
}
