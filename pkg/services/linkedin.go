package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/eventbus"
	"github.com/unyte/adconnect/pkg/events"
	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/otelhelper"
	"github.com/unyte/adconnect/pkg/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const adAccountsCacheTTL = 10 * time.Minute

// LinkedInAPI is the subset of the LinkedIn client used by the submission use cases.
type LinkedInAPI interface {
	AdAccounts(ctx context.Context, accessToken string) ([]models.AdAccount, error)
	CampaignGroups(ctx context.Context, accessToken, accountID string) ([]models.CampaignGroup, error)
	CreateCampaignGroup(ctx context.Context, accessToken, accountID, name string) (*models.CampaignGroup, error)
	CreateCampaign(ctx context.Context, accessToken, accountID string, req linkedin.CampaignRequest) (*models.Campaign, error)
}

// AccessTokenSource resolves the stored platform token of the current user.
type AccessTokenSource interface {
	AccessToken(ctx context.Context, platform models.Platform, organizationID string) (string, error)
}

// AdAccountsCacheKey is the cache key of the LinkedIn ad accounts of a user in an organization.
func AdAccountsCacheKey(userID, organizationID string) string {
	return "linkedin:ad_accounts:" + userID + ":" + organizationID
}

// LinkedIn implements campaign submission against LinkedIn with the caller's stored connection.
type LinkedIn struct {
	api       LinkedInAPI
	tokens    AccessTokenSource
	publisher eventbus.EventPublisher
	cache     cache.Cache
	validate  *validator.Validate
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewLinkedIn creates the LinkedIn submission service.
func NewLinkedIn(
	api LinkedInAPI,
	tokens AccessTokenSource,
	publisher eventbus.EventPublisher,
	store cache.Cache,
	tracer trace.Tracer,
	logger *slog.Logger,
) *LinkedIn {
	if store == nil {
		store = cache.NewMemory()
	}

	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &LinkedIn{
		api:       api,
		tokens:    tokens,
		publisher: publisher,
		cache:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    tracer,
		logger:    logger.With("module", "linkedin"),
	}
}

// AdAccounts lists the ad accounts reachable through the current user's LinkedIn connection.
func (l *LinkedIn) AdAccounts(ctx context.Context, organizationID string) ([]models.AdAccount, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return nil, newUnauthenticatedError("AdAccounts")
	}

	key := AdAccountsCacheKey(user.ID, organizationID)

	var accounts []models.AdAccount
	if found, err := l.cache.Get(ctx, key, &accounts); err != nil {
		l.logger.WarnContext(ctx, "Failed to read ad accounts cache", "error", err)
	} else if found {
		return accounts, nil
	}

	token, err := l.tokens.AccessToken(ctx, models.PlatformLinkedIn, organizationID)
	if err != nil {
		return nil, err
	}

	accounts, err = l.api.AdAccounts(ctx, token)
	if err != nil {
		return nil, l.externalError("AdAccounts", "Failed to fetch LinkedIn ad accounts", err)
	}

	if err := l.cache.Set(ctx, key, accounts, adAccountsCacheTTL); err != nil {
		l.logger.WarnContext(ctx, "Failed to cache ad accounts", "error", err)
	}

	return accounts, nil
}

// CampaignGroups lists the campaign groups of an ad account.
func (l *LinkedIn) CampaignGroups(ctx context.Context, organizationID, accountID string) ([]models.CampaignGroup, error) {
	if accountID == "" {
		return nil, NewValidationError("CampaignGroups", "account_required", "Ad account ID is required")
	}

	token, err := l.tokens.AccessToken(ctx, models.PlatformLinkedIn, organizationID)
	if err != nil {
		return nil, err
	}

	groups, err := l.api.CampaignGroups(ctx, token, accountID)
	if err != nil {
		return nil, l.externalError("CampaignGroups", "Failed to fetch LinkedIn campaign groups", err)
	}

	return groups, nil
}

// CreateCampaignGroup creates a draft campaign group in the ad account.
func (l *LinkedIn) CreateCampaignGroup(ctx context.Context, organizationID, accountID, name string) (*models.CampaignGroup, error) {
	if accountID == "" || name == "" {
		return nil, NewValidationError("CreateCampaignGroup", "invalid_campaign_group", "Ad account ID and name are required")
	}

	token, err := l.tokens.AccessToken(ctx, models.PlatformLinkedIn, organizationID)
	if err != nil {
		return nil, err
	}

	group, err := l.api.CreateCampaignGroup(ctx, token, accountID, name)
	if err != nil {
		return nil, l.externalError("CreateCampaignGroup", "Failed to create LinkedIn campaign group", err)
	}

	l.logger.InfoContext(ctx, "Campaign group created", "ad_account_id", accountID, "campaign_group_id", group.ID)

	return group, nil
}

// CreateCampaign validates the request and creates a draft campaign.
func (l *LinkedIn) CreateCampaign(ctx context.Context, organizationID, accountID string, req linkedin.CampaignRequest) (campaign *models.Campaign, err error) {
	ctx, span := otelhelper.StartSpan(ctx, l.tracer, "linkedin.create_campaign",
		attribute.String(otelhelper.OrganizationIDKey, organizationID),
		attribute.String(otelhelper.AdAccountIDKey, accountID),
		attribute.String(otelhelper.CampaignTypeKey, string(req.Type)),
	)

	defer func() {
		if err != nil {
			otelhelper.SetError(span, err)
		}

		span.End()
	}()

	if accountID == "" {
		return nil, NewValidationError("CreateCampaign", "account_required", "Ad account ID is required")
	}

	if err := l.validate.Struct(req); err != nil {
		return nil, &ServiceError{
			Op:      "CreateCampaign",
			Code:    "invalid_campaign",
			Message: "Invalid campaign: " + err.Error(),
			Err:     errors.Join(ErrValidationFailed, err),
		}
	}

	token, err := l.tokens.AccessToken(ctx, models.PlatformLinkedIn, organizationID)
	if err != nil {
		return nil, err
	}

	campaign, err = l.api.CreateCampaign(ctx, token, accountID, req)
	if err != nil {
		return nil, l.externalError("CreateCampaign", "Failed to create LinkedIn campaign", err)
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, organizationID, events.NewCampaignCreated(organizationID, accountID, campaign)); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish campaign created event", "error", err)
		}
	}

	return campaign, nil
}

func (l *LinkedIn) externalError(op, message string, err error) *ServiceError {
	code := "external_call_failed"
	if errors.Is(err, linkedin.ErrUnauthorized) {
		message = "LinkedIn connection expired, please reconnect"
		code = "token_rejected"
	}

	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     errors.Join(ErrExternalCallFailed, err),
	}
}
