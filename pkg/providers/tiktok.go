package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/unyte/adconnect/pkg/models"
)

const (
	tikTokAuthURL     = "https://business-api.tiktok.com/portal/auth"
	tikTokTokenURL    = "https://business-api.tiktok.com/open_api/v1.3/oauth2/access_token/"
	tikTokRevokeURL   = "https://business-api.tiktok.com/open_api/v1.3/oauth2/revoke_token/"
	tikTokUserInfoURL = "https://business-api.tiktok.com/open_api/v1.3/user/info/"
)

// Envelope codes from 50000 up are TikTok-side failures; lower non-zero codes reject the request.
const tikTokServerErrorCode = 50000

// tikTokAPIError is a non-zero envelope code.
type tikTokAPIError struct {
	Code    int
	Message string
}

func (e *tikTokAPIError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", ErrExternalResponse, e.Message, e.Code)
}

func (e *tikTokAPIError) Unwrap() error {
	return ErrExternalResponse
}

// tikTokEnvelope is the response wrapper of every TikTok business API call. Code 0 means success.
type tikTokEnvelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type tikTokUserData struct {
	CoreUserID  string `json:"core_user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

type tikTokTokenData struct {
	AccessToken   string   `json:"access_token"`
	Scope         []int    `json:"scope"`
	AdvertiserIDs []string `json:"advertiser_ids"`
}

// TikTok implements Provider against the TikTok for Business API, whose token endpoints
// take JSON bodies and wrap results in a {code, message, data} envelope.
type TikTok struct {
	cfg       Config
	authURL   string
	tokenURL  string
	revokeURL string
	userURL   string
	client    *http.Client
	breaker   *breaker
	logger    *slog.Logger
}

// NewTikTok creates the TikTok for Business provider.
func NewTikTok(cfg Config, deps Dependencies) Provider {
	return &TikTok{
		cfg:       cfg,
		authURL:   endpointOrDefault(cfg.AuthURL, tikTokAuthURL),
		tokenURL:  endpointOrDefault(cfg.TokenURL, tikTokTokenURL),
		revokeURL: endpointOrDefault(cfg.RevokeURL, tikTokRevokeURL),
		userURL:   endpointOrDefault(cfg.UserInfoURL, tikTokUserInfoURL),
		client:    deps.HTTPClient,
		breaker:   newBreaker(models.PlatformTikTok, deps.Metrics),
		logger:    deps.Logger.With("module", "provider", "platform", string(models.PlatformTikTok)),
	}
}

func (t *TikTok) Platform() models.Platform {
	return models.PlatformTikTok
}

func (t *TikTok) AuthCodeURL(state string) string {
	query := url.Values{
		"app_id":       {t.cfg.ClientID},
		"state":        {state},
		"redirect_uri": {t.cfg.RedirectURL},
	}

	return t.authURL + "?" + query.Encode()
}

func (t *TikTok) Exchange(ctx context.Context, code string) (*Token, error) {
	var data tikTokTokenData

	err := t.breaker.do("exchange", func() error {
		return t.post(ctx, t.tokenURL, map[string]string{
			"app_id":    t.cfg.ClientID,
			"secret":    t.cfg.ClientSecret,
			"auth_code": code,
		}, &data)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	if data.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", ErrExchangeFailed)
	}

	scopes := make([]string, 0, len(data.Scope))
	for _, scope := range data.Scope {
		scopes = append(scopes, fmt.Sprint(scope))
	}

	// TikTok business tokens do not expire and come without a refresh token.
	return &Token{
		AccessToken: data.AccessToken,
		Scope:       strings.Join(scopes, ","),
	}, nil
}

func (t *TikTok) Revoke(ctx context.Context, token string) error {
	return t.breaker.do("revoke", func() error {
		err := t.post(ctx, t.revokeURL, map[string]string{
			"app_id":       t.cfg.ClientID,
			"secret":       t.cfg.ClientSecret,
			"access_token": token,
		}, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRevocationFailed, err)
		}

		return nil
	})
}

func (t *TikTok) AccountInfo(ctx context.Context, accessToken string) (*Account, error) {
	var data tikTokUserData

	err := t.breaker.do("account_info", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.userURL, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		req.Header.Set("Access-Token", accessToken)

		return t.send(ctx, req, &data)
	})
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:             data.CoreUserID,
		DisplayName:    data.DisplayName,
		Email:          data.Email,
		ProfilePicture: data.AvatarURL,
	}, nil
}

// post sends body as JSON and decodes the envelope's data into dest when dest is non-nil.
func (t *TikTok) post(ctx context.Context, endpoint string, body any, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return t.send(ctx, req, dest)
}

func (t *TikTok) send(ctx context.Context, req *http.Request, dest any) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp, ErrExternalResponse); err != nil {
		return err
	}

	var envelope tikTokEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Code != 0 {
		t.logger.WarnContext(ctx, "TikTok API rejected request", "code", envelope.Code, "request_id", envelope.RequestID)

		return &tikTokAPIError{Code: envelope.Code, Message: envelope.Message}
	}

	if dest == nil || len(envelope.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}
