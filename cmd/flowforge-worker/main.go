package main

import (
	"context"
	"os"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "flowforge-worker",
		EnableShellCompletion: true,
		Usage:                 "Consume automation jobs and generate workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "PostgreSQL connection URL for the artifact and progress sinks",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the job stream",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Value:   "",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "job-stream",
				Usage:   "Redis stream carrying automation jobs",
				Value:   "flowforge:jobs",
				Sources: cli.EnvVars("JOB_STREAM"),
			},
			&cli.StringFlag{
				Name:    "consumer-group",
				Usage:   "Redis consumer group name",
				Value:   "flowforge-generators",
				Sources: cli.EnvVars("CONSUMER_GROUP"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, memory)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Value:   "",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "discovery-url",
				Usage:   "Node-discovery service endpoint (optional)",
				Value:   "",
				Sources: cli.EnvVars("DISCOVERY_URL"),
			},
			&cli.StringFlag{
				Name:    "discovery-token",
				Usage:   "Node-discovery bearer token",
				Value:   "",
				Sources: cli.EnvVars("DISCOVERY_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key",
				Value:   "",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "anthropic-api-key",
				Usage:   "Anthropic API key",
				Value:   "",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
			},
			&cli.FloatFlag{
				Name:    "max-call-cost",
				Usage:   "Soft warning threshold for a single AI call, in USD",
				Value:   0.50,
				Sources: cli.EnvVars("MAX_CALL_COST"),
			},
			&cli.FloatFlag{
				Name:    "max-daily-cost",
				Usage:   "Soft warning threshold for daily AI spend, in USD",
				Value:   50,
				Sources: cli.EnvVars("MAX_DAILY_COST"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("flowforge-worker").With("workerId", workerID)

			return runWorker(ctx, command, workerID, logger)
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
