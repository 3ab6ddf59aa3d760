package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/praxisflow/praxisflow/pkg/cmd"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/log"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "praxisflow-scheduler",
		Usage:                 "Release scheduled tasks and deliver scheduled chat messages when due",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "providers-config",
				Usage:   "Path to the delivery providers YAML file",
				Value:   "./providers.yaml",
				Sources: cli.EnvVars("PROVIDERS_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression for the dispatch sweep",
				Value:   "@every 1m",
				Sources: cli.EnvVars("SCHEDULER_CRON"),
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

			logger.InfoContext(ctx, "Initializing Praxisflow scheduler")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			providers := config.LoadProvidersConfigOrDefault(command.String("providers-config"))
			chatClient := chat.NewClient(providers.Chat, logger)

			scheduler := NewScheduler(logger, persistence, chatClient)

			if err := scheduler.Start(ctx, command.String("cron")); err != nil {
				return err
			}

			defer scheduler.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down scheduler")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
