package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/eventbus"
	"github.com/unyte/adconnect/pkg/events"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/otelhelper"
	"github.com/unyte/adconnect/pkg/persistence"
	"github.com/unyte/adconnect/pkg/providers"
	"github.com/unyte/adconnect/pkg/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StateSeparator joins the nonce and the organization ID inside the OAuth state parameter.
const StateSeparator = "__"

const statusCacheTTL = 5 * time.Minute

// Callback failure reasons, shown on the error page.
const (
	ReasonInvalidState       = "Invalid state parameter"
	ReasonMissingParameters  = "Missing required parameters"
	ReasonInvalidStateFormat = "Invalid state parameter format"
	ReasonExchangeFailed     = "Failed to exchange token"
	ReasonSaveFailed         = "Failed to save connection"
)

// ConnectionDependencies wires the Connection service. Nil optional members get in-process defaults.
type ConnectionDependencies struct {
	Persistence persistence.Persistence
	Providers   *providers.Registry
	Publisher   eventbus.EventPublisher
	Cache       cache.Cache
	Metrics     *metrics.Metrics
	Tracer      trace.Tracer
	Logger      *slog.Logger
}

// Connection manages the lifecycle of platform connections: connect, callback, status and disconnect.
type Connection struct {
	persistence persistence.Persistence
	providers   *providers.Registry
	publisher   eventbus.EventPublisher
	cache       cache.Cache
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewConnection creates a new connection service.
func NewConnection(deps ConnectionDependencies) *Connection {
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory()
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	if deps.Tracer == nil {
		deps.Tracer = otelhelper.NoopTracer()
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Connection{
		persistence: deps.Persistence,
		providers:   deps.Providers,
		publisher:   deps.Publisher,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		tracer:      deps.Tracer,
		logger:      deps.Logger.With("module", "connections"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (c *Connection) HealthCheck(ctx context.Context) (string, bool) {
	if c.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := c.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// StatusCacheKey is the cache key of the connection status list of a user in an organization.
func StatusCacheKey(userID, organizationID string) string {
	return "connections:status:" + userID + ":" + organizationID
}

// Status reports, for every supported platform, whether the current user has connected it in the organization.
func (c *Connection) Status(ctx context.Context, organizationID string) ([]models.ConnectionStatus, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return nil, newUnauthenticatedError("Status")
	}

	if organizationID == "" {
		return nil, NewValidationError("Status", "organization_required", "Organization ID is required")
	}

	key := StatusCacheKey(user.ID, organizationID)

	var statuses []models.ConnectionStatus
	if found, err := c.cache.Get(ctx, key, &statuses); err != nil {
		c.logger.WarnContext(ctx, "Failed to read connection status cache", "error", err)
	} else if found {
		return statuses, nil
	}

	connections, err := c.persistence.ConnectionRepository().ConnectionsByOrganization(ctx, user.ID, organizationID)
	if err != nil {
		return nil, newUnexpectedError("Status", err)
	}

	byPlatform := make(map[models.Platform]*models.Connection, len(connections))
	for _, connection := range connections {
		byPlatform[connection.Platform] = connection
	}

	statuses = make([]models.ConnectionStatus, 0, len(models.Platforms))

	for _, platform := range models.Platforms {
		status := models.ConnectionStatus{Platform: platform}

		if connection, ok := byPlatform[platform]; ok {
			connectedAt := connection.UpdatedAt
			status.Connected = true
			status.ConnectedAt = &connectedAt
		}

		statuses = append(statuses, status)
	}

	if err := c.cache.Set(ctx, key, statuses, statusCacheTTL); err != nil {
		c.logger.WarnContext(ctx, "Failed to cache connection status", "error", err)
	}

	return statuses, nil
}

// AccessToken returns the stored access token of the current user's connection to platform.
func (c *Connection) AccessToken(ctx context.Context, platform models.Platform, organizationID string) (string, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return "", newUnauthenticatedError("AccessToken")
	}

	connection, err := c.findConnection(ctx, "AccessToken", user.ID, organizationID, platform)
	if err != nil {
		return "", err
	}

	return connection.AccessToken, nil
}

// Account returns the provider profile of the account behind the current user's connection to platform.
// A missing display name falls back to the platform's default account name.
func (c *Connection) Account(ctx context.Context, platform models.Platform, organizationID string) (*models.AccountProfile, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return nil, newUnauthenticatedError("Account")
	}

	if organizationID == "" {
		return nil, NewValidationError("Account", "organization_required", "Organization ID is required")
	}

	connection, err := c.persistence.ConnectionRepository().FindConnection(ctx, user.ID, organizationID, platform)
	if err != nil {
		if persistence.IsConnectionNotFound(err) {
			return nil, &ServiceError{
				Op:      "Account",
				Code:    "not_found",
				Message: fmt.Sprintf("No %s account connected", platform.BrandName()),
				Err:     ErrConnectionNotFound,
			}
		}

		return nil, newUnexpectedError("Account", err)
	}

	provider, err := c.providers.Get(platform)
	if err != nil {
		return nil, &ServiceError{Op: "Account", Code: "not_configured", Message: platform.DisplayName() + " is not configured", Err: err}
	}

	account, err := provider.AccountInfo(ctx, connection.AccessToken)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to fetch provider account", "platform", platform, "error", err)

		return nil, &ServiceError{
			Op:      "Account",
			Code:    "account_failed",
			Message: fmt.Sprintf("Failed to fetch %s account info", platform.BrandName()),
			Err:     errors.Join(ErrExternalCallFailed, err),
		}
	}

	profile := &models.AccountProfile{
		Platform:       platform,
		ID:             account.ID,
		DisplayName:    strings.TrimSpace(account.DisplayName),
		Email:          account.Email,
		ProfilePicture: account.ProfilePicture,
	}

	if profile.DisplayName == "" {
		profile.DisplayName = platform.DefaultAccountName()
	}

	return profile, nil
}

// ConnectRequest is the provider redirect that starts an OAuth flow.
type ConnectRequest struct {
	URL   string
	State string
}

// BeginConnect creates the single-use state for an OAuth flow and returns the provider authorization URL.
func (c *Connection) BeginConnect(ctx context.Context, platform models.Platform, organizationID string) (*ConnectRequest, error) {
	if _, ok := session.UserFromContext(ctx); !ok {
		return nil, newUnauthenticatedError("BeginConnect")
	}

	if organizationID == "" || strings.Contains(organizationID, StateSeparator) {
		return nil, NewValidationError("BeginConnect", "invalid_organization", "A valid organization ID is required")
	}

	provider, err := c.providers.Get(platform)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString() + StateSeparator + organizationID

	return &ConnectRequest{URL: provider.AuthCodeURL(state), State: state}, nil
}

// CallbackRequest carries the query parameters of an OAuth callback plus the state cookie value.
type CallbackRequest struct {
	Platform         models.Platform
	Code             string
	State            string
	StoredState      string
	Error            string
	ErrorDescription string
}

// HandleCallback validates an OAuth callback, exchanges the code and stores the connection.
// It always returns the path to redirect the browser to; the error, when non-nil, explains a failed flow.
func (c *Connection) HandleCallback(ctx context.Context, req CallbackRequest) (redirect string, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "connection.callback",
		attribute.String(otelhelper.PlatformKey, string(req.Platform)),
	)

	outcome := "connected"

	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "Panic while processing callback", "platform", req.Platform, "panic", r)

			outcome = "unexpected"
			err = newUnexpectedError("HandleCallback", fmt.Errorf("panic: %v", r))
			redirect = ErrorRedirectPath(fmt.Sprintf("Unexpected error processing %s callback", req.Platform.DisplayName()), "")
		}

		if err != nil {
			otelhelper.SetError(span, err)
		}

		c.metrics.Callbacks.WithLabelValues(string(req.Platform), outcome).Inc()
		span.End()
	}()

	if req.Error != "" {
		c.logger.ErrorContext(ctx, "Provider reported an authorization error",
			"platform", req.Platform, "error", req.Error, "description", req.ErrorDescription)

		outcome = "provider_error"

		return "/auth/error?error=" + encodeComponent(req.Error) + "&description=" + encodeComponent(req.ErrorDescription), &ServiceError{
			Op:      "HandleCallback",
			Code:    "provider_error",
			Message: req.Error,
			Err:     ErrExternalCallFailed,
		}
	}

	if req.StoredState == "" || req.StoredState != req.State {
		c.logger.ErrorContext(ctx, "State mismatch on callback", "platform", req.Platform)

		outcome = "invalid_state"

		return ErrorRedirectPath(ReasonInvalidState, ""), NewValidationError("HandleCallback", "invalid_state", ReasonInvalidState)
	}

	if req.Code == "" || req.State == "" {
		outcome = "missing_parameters"

		return ErrorRedirectPath(ReasonMissingParameters, ""), NewValidationError("HandleCallback", "missing_parameters", ReasonMissingParameters)
	}

	parts := strings.Split(req.State, StateSeparator)
	if len(parts) != 2 {
		outcome = "invalid_state_format"

		return ErrorRedirectPath(ReasonInvalidStateFormat, ""), NewValidationError("HandleCallback", "invalid_state_format", ReasonInvalidStateFormat)
	}

	organizationID := parts[1]
	span.SetAttributes(attribute.String(otelhelper.OrganizationIDKey, organizationID))

	connection, err := c.exchange(ctx, req.Platform, organizationID, req.Code)
	if err != nil {
		outcome = "exchange_failed"

		return ErrorRedirectPath(UserMessage(err), ""), err
	}

	if err := c.persistence.ConnectionRepository().SaveConnection(ctx, connection); err != nil {
		outcome = "save_failed"

		return ErrorRedirectPath(ReasonSaveFailed, ""), &ServiceError{
			Op:      "HandleCallback",
			Code:    "save_failed",
			Message: ReasonSaveFailed,
			Err:     errors.Join(ErrUnexpected, err),
		}
	}

	c.logger.InfoContext(ctx, "Platform connected",
		"platform", connection.Platform,
		"organization_id", connection.OrganizationID,
		"connection_id", connection.ID)

	c.invalidate(ctx, connection.UserID, connection.OrganizationID)
	c.publish(ctx, connection.OrganizationID, events.NewConnectionConnected(connection))

	return fmt.Sprintf("/home/%s?%s=connected&success=1", url.PathEscape(organizationID), req.Platform), nil
}

func (c *Connection) exchange(ctx context.Context, platform models.Platform, organizationID, code string) (*models.Connection, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return nil, newUnauthenticatedError("HandleCallback")
	}

	provider, err := c.providers.Get(platform)
	if err != nil {
		return nil, &ServiceError{Op: "HandleCallback", Code: "not_configured", Message: ReasonExchangeFailed, Err: err}
	}

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		c.logger.ErrorContext(ctx, "Token exchange failed", "platform", platform, "error", err)

		return nil, &ServiceError{
			Op:      "HandleCallback",
			Code:    "exchange_failed",
			Message: ReasonExchangeFailed,
			Err:     errors.Join(ErrExternalCallFailed, err),
		}
	}

	return &models.Connection{
		Platform:       platform,
		OrganizationID: organizationID,
		UserID:         user.ID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		Scope:          token.Scope,
		ExpiresAt:      token.ExpiresAt,
	}, nil
}

// Disconnect revokes the current user's credential for platform at the provider, best effort,
// and deletes the local connection. On success no local credential remains.
func (c *Connection) Disconnect(ctx context.Context, platform models.Platform, organizationID string) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "connection.disconnect",
		attribute.String(otelhelper.PlatformKey, string(platform)),
		attribute.String(otelhelper.OrganizationIDKey, organizationID),
	)

	defer func() {
		result := "success"
		if err != nil {
			result = "failure"

			otelhelper.SetError(span, err)
			c.logger.ErrorContext(ctx, "Error disconnecting platform", "platform", platform, "error", err)
		}

		c.metrics.Disconnects.WithLabelValues(string(platform), result).Inc()
		span.End()
	}()

	user, ok := session.UserFromContext(ctx)
	if !ok {
		return newUnauthenticatedError("Disconnect")
	}

	connection, err := c.findConnection(ctx, "Disconnect", user.ID, organizationID, platform)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(otelhelper.ConnectionIDKey, connection.ID))

	revoked := c.revoke(ctx, connection)

	if err := c.persistence.ConnectionRepository().DeleteConnection(ctx, connection.ID); err != nil {
		if persistence.IsConnectionNotFound(err) {
			return c.notFound("Disconnect", platform)
		}

		return &ServiceError{
			Op:      "Disconnect",
			Code:    "delete_failed",
			Message: fmt.Sprintf("Error deleting %s connection", platform.DisplayName()),
			Err:     errors.Join(ErrDeleteFailed, err),
		}
	}

	c.invalidate(ctx, user.ID, organizationID)
	c.publish(ctx, organizationID, events.NewConnectionDisconnected(connection, revoked))

	return nil
}

// revoke asks the provider to invalidate the connection's token. Failures are logged and counted, never returned.
func (c *Connection) revoke(ctx context.Context, connection *models.Connection) bool {
	platform := string(connection.Platform)

	token := connection.RevocationToken()
	if token == "" {
		c.logger.WarnContext(ctx, "No token available for revocation", "platform", platform)
		c.metrics.RevocationFailures.WithLabelValues(platform, "no_token").Inc()

		return false
	}

	provider, err := c.providers.Get(connection.Platform)
	if err != nil {
		c.logger.WarnContext(ctx, "Skipping revocation", "platform", platform, "error", err)
		c.metrics.RevocationFailures.WithLabelValues(platform, "not_configured").Inc()

		return false
	}

	if err := provider.Revoke(ctx, token); err != nil {
		reason := "provider_error"
		if errors.Is(err, providers.ErrCircuitOpen) {
			reason = "circuit_open"
		}

		c.logger.WarnContext(ctx, "Token revocation may have failed", "platform", platform, "error", err)
		c.metrics.RevocationFailures.WithLabelValues(platform, reason).Inc()

		return false
	}

	c.logger.InfoContext(ctx, "Token revoked", "platform", platform)

	return true
}

func (c *Connection) findConnection(ctx context.Context, op, userID, organizationID string, platform models.Platform) (*models.Connection, error) {
	connection, err := c.persistence.ConnectionRepository().FindConnection(ctx, userID, organizationID, platform)
	if err != nil {
		if persistence.IsConnectionNotFound(err) {
			return nil, c.notFound(op, platform)
		}

		return nil, newUnexpectedError(op, err)
	}

	return connection, nil
}

func (c *Connection) notFound(op string, platform models.Platform) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "not_found",
		Message: platform.DisplayName() + " connection not found",
		Err:     ErrConnectionNotFound,
	}
}

func (c *Connection) invalidate(ctx context.Context, userID, organizationID string) {
	if err := c.cache.Delete(ctx, StatusCacheKey(userID, organizationID), AdAccountsCacheKey(userID, organizationID)); err != nil {
		c.logger.WarnContext(ctx, "Failed to invalidate connection caches", "error", err)
	}
}

func (c *Connection) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.publisher == nil {
		return
	}

	if err := c.publisher.Publish(ctx, key, event); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// ErrorRedirectPath builds the error page location. Components are escaped like encodeURIComponent.
func ErrorRedirectPath(reason, description string) string {
	path := "/auth/error?error=" + encodeComponent(reason)
	if description != "" {
		path += "&description=" + encodeComponent(description)
	}

	return path
}

func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
