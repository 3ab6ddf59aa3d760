package main

import (
	"context"
	"os"

	"github.com/praxisflow/praxisflow/pkg/cache"
	"github.com/praxisflow/praxisflow/pkg/cmd"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/eventbus"
	"github.com/praxisflow/praxisflow/pkg/log"
	"github.com/praxisflow/praxisflow/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "praxisflow-api",
		Usage:                 "Accept stage events and run clinic automations against them",
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
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the service-name cache (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Lifecycle event bus provider (kafka, gochannel, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "providers-config",
				Usage:   "Path to the delivery providers YAML file",
				Value:   "./providers.yaml",
				Sources: cli.EnvVars("PROVIDERS_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
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

			logger.InfoContext(ctx, "Initializing Praxisflow API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if eventBus == nil {
					return
				}

				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if eventBus != nil {
				if err := eventbus.NewActivityLog(logger).Register(eventBus); err != nil {
					return err
				}

				if err := eventBus.Subscribe(ctx); err != nil {
					return err
				}
			}

			redisClient, err := cache.NewRedisClient(command.String("redis-url"))
			if err != nil {
				return err
			}

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "praxisflow-api")
				if err != nil {
					return err
				}
			}

			providers := config.LoadProvidersConfigOrDefault(command.String("providers-config"))

			engine := cmd.NewEngine(persistence, redisClient, providers, eventBus, tracer, logger)

			api := NewAPI(logger, persistence, engine)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
