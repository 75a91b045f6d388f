// Package main provides the FlowForge ops API server.
package main

import (
	"fmt"
	"log/slog"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"
)

type API struct {
	logger  *slog.Logger
	monitor *costs.Monitor
}

func NewAPI(command *cli.Command, logger *slog.Logger) *API {
	monitor := costs.NewMonitor(costs.Config{
		MaxCallCost:  command.Float("max-call-cost"),
		MaxDailyCost: command.Float("max-daily-cost"),
	}, logger)

	return &API{
		logger:  logger,
		monitor: monitor,
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	web.NewAPIHandlers(a.monitor, a.logger).RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(fmt.Sprintf(":%d", port))
}

func (a *API) Close() {
	a.monitor.Close()
}
