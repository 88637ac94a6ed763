// Package main provides the prodflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/eventbus"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/services"
	"github.com/prodflow/prodflow/pkg/web"
	"github.com/prodflow/prodflow/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	runner      *agent.Runner
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	runner *agent.Runner,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		runner:      runner,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	executor := workflow.NewExecutor(a.logger, a.persistence, a.runner,
		workflow.WithEventBus(a.eventBus))

	workflowService := services.NewWorkflow(a.persistence)
	executionService := services.NewExecution(a.persistence, executor)
	agentService := services.NewAgent(a.persistence, a.runner)

	handlers := web.NewAPIHandlers(workflowService, executionService, agentService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("prodflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/executions", handlers.StartExecution)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/events", handlers.SendExecutionEvent)

	ag := app.Group("/agents")
	ag.Get("/", handlers.GetAgents)
	ag.Post("/", handlers.CreateAgent)
	ag.Get("/:id", handlers.GetAgent)
	ag.Put("/:id", handlers.UpdateAgent)
	ag.Post("/:id/execute", handlers.ExecuteAgent)
	ag.Post("/:id/conversations", handlers.CreateConversation)

	co := app.Group("/conversations")
	co.Post("/:id/messages", handlers.SendMessage)
	co.Get("/:id/messages", handlers.GetMessages)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
