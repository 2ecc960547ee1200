package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/unyte/adconnect/pkg/cmd"
	"github.com/unyte/adconnect/pkg/log"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/otelhelper"
	"github.com/unyte/adconnect/pkg/services"
	"github.com/unyte/adconnect/pkg/session"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	cmd := &cli.Command{
		Name:                  "adconnect-api",
		Usage:                 "Connect ad platforms to organizations and submit LinkedIn campaigns",
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
				Usage:    "Database connection URL for persistence (postgres://... or a directory for file storage)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "redis-url",
				Usage:    "Redis URL holding sessions and the shared cache",
				Required: true,
				Sources:  cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "Sliding lifetime of a dashboard session",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:     "platforms-config",
				Usage:    "Path to the platform OAuth client configuration (YAML)",
				Value:    "./platforms.yaml",
				Sources:  cli.EnvVars("PLATFORMS_CONFIG"),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "app-base-url",
				Usage:    "Dashboard origin OAuth callbacks redirect to",
				Required: true,
				Sources:  cli.EnvVars("APP_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "linkedin-api-url",
				Usage:   "LinkedIn Marketing API base URL",
				Sources: cli.EnvVars("LINKEDIN_API_URL"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces through OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing adconnect API")

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "adconnect-api", command.Bool("otel"))
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdownTracer(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			m := metrics.New()
			registry := cmd.NewProviders(ctx, logger, command.String("platforms-config"), m)
			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			redisClient := cmd.NewRedis(ctx, logger, command.String("redis-url"))
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
				}
			}()

			store := cmd.NewCache(redisClient)

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			err = services.RegisterCacheInvalidation(eventBus, store, logger)
			if err != nil {
				return err
			}

			err = eventBus.Subscribe(ctx)
			if err != nil {
				return err
			}

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				session.NewRedisStore(redisClient, command.Duration("session-ttl")),
				store,
				m,
				tracer,
				Settings{
					AppBaseURL:      strings.TrimSuffix(command.String("app-base-url"), "/"),
					SecureCookies:   strings.HasPrefix(command.String("app-base-url"), "https://"),
					LinkedInBaseURL: command.String("linkedin-api-url"),
					HTTPClient:      &http.Client{Timeout: 15 * time.Second},
				},
			)

			err = api.Start(int(command.Int("port")))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
