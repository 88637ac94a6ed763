package main

import (
	"context"
	"os"

	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/cmd"
	"github.com/prodflow/prodflow/pkg/gateway"
	"github.com/prodflow/prodflow/pkg/log"
	"github.com/prodflow/prodflow/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "prodflow-api",
		Usage:                 "Create and manage workflows, agents and executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file:// or redis://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "openai-api-key",
				Usage:    "API key for the model gateway",
				Required: true,
				Sources:  cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Base URL for an OpenAI-compatible endpoint",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
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

			logger.InfoContext(ctx, "Initializing prodflow API")

			shutdownTracing, err := otelhelper.Setup(ctx, "prodflow-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled, failed to initialize exporter", "error", err)
			} else {
				defer func() {
					if err := shutdownTracing(context.Background()); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer provider", "error", err)
					}
				}()
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := cmd.SubscribeLifecycleLogging(ctx, eventBus, logger); err != nil {
				logger.ErrorContext(ctx, "Failed to subscribe to lifecycle events", "error", err)

				return err
			}

			modelGateway, err := gateway.NewOpenAIGateway(gateway.OpenAIConfig{
				APIKey:  command.String("openai-api-key"),
				BaseURL: command.String("openai-base-url"),
			})
			if err != nil {
				return err
			}

			registry := cmd.NewToolRegistry(logger)
			runner := agent.NewRunner(logger, persistence, modelGateway, registry)

			api := NewAPI(logger, persistence, runner, eventBus)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
