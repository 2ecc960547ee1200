// Package web provides the HTTP handlers of the ad-platform connection API.
package web

import (
	"errors"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/unyte/adconnect/pkg/autopopulate"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/services"
	"github.com/unyte/adconnect/pkg/submission"
	"github.com/xeipuuv/gojsonschema"
)

// StateCookieTTL bounds how long an OAuth flow may take between connect and callback.
const StateCookieTTL = 10 * time.Minute

type APIHandlers struct {
	connectionService *services.Connection
	linkedInService   *services.LinkedIn
	engine            *autopopulate.Engine
	validator         *validator.Validate
	metrics           *metrics.Metrics
	appBaseURL        string
	secureCookies     bool
	logger            *slog.Logger
}

// HandlerConfig carries the non-service settings of the handlers.
type HandlerConfig struct {
	AppBaseURL    string
	SecureCookies bool
}

func NewAPIHandlers(
	connectionService *services.Connection,
	linkedInService *services.LinkedIn,
	engine *autopopulate.Engine,
	validator *validator.Validate,
	metrics *metrics.Metrics,
	config HandlerConfig,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		connectionService: connectionService,
		linkedInService:   linkedInService,
		engine:            engine,
		validator:         validator,
		metrics:           metrics,
		appBaseURL:        config.AppBaseURL,
		secureCookies:     config.SecureCookies,
		logger:            logger.With("module", "web"),
	}
}

func (h *APIHandlers) platformParam(c fiber.Ctx) (models.Platform, bool) {
	platform, err := models.ParsePlatform(c.Params("platform"))

	return platform, err == nil
}

// Connect starts the OAuth flow of a platform: it stores the state in a short-lived cookie and
// redirects the browser to the provider's consent page.
func (h *APIHandlers) Connect(c fiber.Ctx) error {
	platform, ok := h.platformParam(c)
	if !ok {
		return notFound(c, "Unsupported platform")
	}

	organizationID := c.Query("organization_id")
	if organizationID == "" {
		return badRequest(c, "organization_id is required")
	}

	connect, err := h.connectionService.BeginConnect(c.Context(), platform, organizationID)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     platform.StateCookieName(),
		Value:    connect.State,
		Path:     "/",
		MaxAge:   int(StateCookieTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect().Status(fiber.StatusFound).To(connect.URL)
}

// Callback completes the OAuth flow. It always answers with a redirect into the dashboard.
func (h *APIHandlers) Callback(c fiber.Ctx) error {
	platform, ok := h.platformParam(c)
	if !ok {
		return notFound(c, "Unsupported platform")
	}

	cookieName := platform.StateCookieName()
	storedState := c.Cookies(cookieName)
	c.ClearCookie(cookieName)

	redirect, err := h.connectionService.HandleCallback(c.Context(), services.CallbackRequest{
		Platform:         platform,
		Code:             c.Query("code"),
		State:            c.Query("state"),
		StoredState:      storedState,
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})
	if err != nil {
		h.logger.WarnContext(c.Context(), "OAuth callback failed", "platform", platform, "error", err)
	}

	return c.Redirect().Status(fiber.StatusFound).To(h.appBaseURL + redirect)
}

// AuthError renders the page providers land on when a flow fails before reaching the dashboard.
func (h *APIHandlers) AuthError(c fiber.Ctx) error {
	message := "An unspecified error occurred."
	if code := c.Query("error"); code != "" {
		message = "Code error: " + html.EscapeString(code)
	}

	c.Type("html", "utf-8")

	return c.Status(fiber.StatusOK).SendString(
		"<!DOCTYPE html><html><head><title>Authentication error</title></head><body>" +
			"<h1>Sorry, something went wrong.</h1><p>" + message + "</p></body></html>",
	)
}

// Disconnect revokes and removes the current user's connection to a platform.
func (h *APIHandlers) Disconnect(c fiber.Ctx) error {
	platform, ok := h.platformParam(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(DisconnectResponse{Error: "Unsupported platform"})
	}

	err := h.connectionService.Disconnect(c.Context(), platform, c.Params("orgId"))
	if err != nil {
		status, _ := errorStatus(err)

		return c.Status(status).JSON(DisconnectResponse{Error: services.UserMessage(err)})
	}

	return c.JSON(DisconnectResponse{Success: true})
}

func (h *APIHandlers) GetConnections(c fiber.Ctx) error {
	statuses, err := h.connectionService.Status(c.Context(), c.Params("orgId"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"connections": statuses})
}

// GetAccount returns the provider profile behind a connection, for the confirmation shown before disconnecting.
func (h *APIHandlers) GetAccount(c fiber.Ctx) error {
	platform, ok := h.platformParam(c)
	if !ok {
		return notFound(c, "Unsupported platform")
	}

	account, err := h.connectionService.Account(c.Context(), platform, c.Params("orgId"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"account": account})
}

func (h *APIHandlers) GetAdAccounts(c fiber.Ctx) error {
	accounts, err := h.linkedInService.AdAccounts(c.Context(), c.Params("orgId"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"accounts": accounts})
}

func (h *APIHandlers) GetCampaignGroups(c fiber.Ctx) error {
	groups, err := h.linkedInService.CampaignGroups(c.Context(), c.Params("orgId"), c.Params("accountId"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"campaignGroups": groups})
}

func (h *APIHandlers) CreateCampaignGroup(c fiber.Ctx) error {
	var req CreateCampaignGroupRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	group, err := h.linkedInService.CreateCampaignGroup(c.Context(), c.Params("orgId"), c.Params("accountId"), req.Name)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *APIHandlers) CreateCampaign(c fiber.Ctx) error {
	var req CreateCampaignRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	if locked := req.Draft.ChangedLockedFields(); len(locked) > 0 {
		h.logger.InfoContext(c.Context(), "Submitting campaign with edited auto-populated fields", "fields", locked)
	}

	campaignRequest := submission.RequestFromDraft(&req.Draft, req.CampaignGroupID, req.Overrides.toSubmission())

	campaign, err := h.linkedInService.CreateCampaign(c.Context(), c.Params("orgId"), c.Params("accountId"), campaignRequest)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// AutoPopulate derives campaign draft fields from an intake form.
func (h *APIHandlers) AutoPopulate(c fiber.Ctx) error {
	schemaResult, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(autoPopulateSchema),
		gojsonschema.NewBytesLoader(c.Body()),
	)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if !schemaResult.Valid() {
		detail := "Invalid request"
		if errs := schemaResult.Errors(); len(errs) > 0 {
			detail = "Invalid request: " + errs[0].String()
		}

		return badRequest(c, detail)
	}

	var req AutoPopulateRequest

	err = c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	campaignType, err := models.ParseCampaignType(req.CampaignType)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.Populate(c.Context(), &req.Form, campaignType)

	switch {
	case errors.Is(err, autopopulate.ErrNoFormData):
		h.metrics.AutoPopulateRuns.WithLabelValues("no_form_data").Inc()

		return c.Status(fiber.StatusBadRequest).JSON(AutoPopulateResponse{
			Fields:        result.Fields,
			Budget:        result.Budget,
			Notifications: result.Notifications,
		})
	case err != nil:
		h.metrics.AutoPopulateRuns.WithLabelValues("failed").Inc()
		h.logger.ErrorContext(c.Context(), "Auto-populate failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(AutoPopulateResponse{
			Fields:        result.Fields,
			Budget:        result.Budget,
			Notifications: result.Notifications,
		})
	}

	h.metrics.AutoPopulateRuns.WithLabelValues("success").Inc()

	effectiveType := campaignType
	if result.Fields.CampaignType != nil {
		effectiveType = *result.Fields.CampaignType
	}

	response := AutoPopulateResponse{
		Fields:        result.Fields,
		Budget:        result.Budget,
		Notifications: result.Notifications,
	}

	if result.Budget.TotalBudget > 0 {
		response.Suggestions = autopopulate.Suggestions(effectiveType, result.Budget.BudgetType, result.Budget.Currency)
	}

	return c.JSON(response)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.connectionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "adconnect API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "adconnect API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
