// Package main provides the adconnect API server implementation.
package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/unyte/adconnect/pkg/autopopulate"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/eventbus"
	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/notify"
	"github.com/unyte/adconnect/pkg/persistence"
	"github.com/unyte/adconnect/pkg/providers"
	"github.com/unyte/adconnect/pkg/services"
	"github.com/unyte/adconnect/pkg/session"
	"github.com/unyte/adconnect/pkg/web"
	"go.opentelemetry.io/otel/trace"
)

// Settings are the non-dependency options of the API.
type Settings struct {
	AppBaseURL      string
	SecureCookies   bool
	LinkedInBaseURL string
	HTTPClient      *http.Client
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	providers   *providers.Registry
	eventBus    eventbus.EventBus
	sessions    session.Store
	cache       cache.Cache
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	settings    Settings
	validate    *validator.Validate

	connectionService *services.Connection
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	providers *providers.Registry,
	eventBus eventbus.EventBus,
	sessions session.Store,
	store cache.Cache,
	m *metrics.Metrics,
	tracer trace.Tracer,
	settings Settings,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		providers:   providers,
		eventBus:    eventBus,
		sessions:    sessions,
		cache:       store,
		metrics:     m,
		tracer:      tracer,
		settings:    settings,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	a.connectionService = services.NewConnection(services.ConnectionDependencies{
		Persistence: a.persistence,
		Providers:   a.providers,
		Publisher:   a.eventBus,
		Cache:       a.cache,
		Metrics:     a.metrics,
		Tracer:      a.tracer,
		Logger:      a.logger,
	})

	linkedInClient := linkedin.NewClient(a.settings.LinkedInBaseURL, a.settings.HTTPClient, a.metrics, a.logger)
	linkedInService := services.NewLinkedIn(linkedInClient, a.connectionService, a.eventBus, a.cache, a.tracer, a.logger)
	engine := autopopulate.NewEngine(a.logger, notify.NewLogger(a.logger))

	handlers := web.NewAPIHandlers(
		a.connectionService,
		linkedInService,
		engine,
		a.validate,
		a.metrics,
		web.HandlerConfig{
			AppBaseURL:    a.settings.AppBaseURL,
			SecureCookies: a.settings.SecureCookies,
		},
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("adconnect API")
	})

	app.Get("/health", handlers.HealthCheck)

	app.Use(session.Middleware(a.sessions, a.logger))

	auth := app.Group("/auth")
	auth.Get("/error", handlers.AuthError)
	auth.Get("/:platform/connect", handlers.Connect)
	auth.Get("/:platform/callback", handlers.Callback)

	org := app.Group("/organizations/:orgId")
	org.Get("/connections", handlers.GetConnections)
	org.Delete("/connections/:platform", handlers.Disconnect)
	org.Get("/connections/:platform/account", handlers.GetAccount)

	li := org.Group("/linkedin")
	li.Post("/auto-populate", handlers.AutoPopulate)
	li.Get("/ad-accounts", handlers.GetAdAccounts)
	li.Get("/ad-accounts/:accountId/campaign-groups", handlers.GetCampaignGroups)
	li.Post("/ad-accounts/:accountId/campaign-groups", handlers.CreateCampaignGroup)
	li.Post("/ad-accounts/:accountId/campaigns", handlers.CreateCampaign)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
