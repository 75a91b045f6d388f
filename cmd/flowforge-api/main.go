package main

import (
	"context"
	"os"

	"github.com/flowforge/flowforge/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("flowforge-api")

	cmd := &cli.Command{
		Name:                  "flowforge-api",
		Usage:                 "Serve the ops API: health, costs, dry-run generation",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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

			logger.InfoContext(ctx, "Initializing FlowForge API")

			api := NewAPI(command, logger)
			defer api.Close()

			return api.Start(command.Int("port"))
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
