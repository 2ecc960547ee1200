package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/unyte/adconnect/pkg/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleRevokeURL     = "https://oauth2.googleapis.com/revoke"
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	facebookRevokeURL   = "https://graph.facebook.com/v19.0/me/permissions"
	facebookUserInfoURL = "https://graph.facebook.com/v19.0/me"
	linkedInRevokeURL   = "https://www.linkedin.com/oauth/v2/revoke"
	linkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"
)

// tokenRequestFunc builds a platform-specific request that carries token.
type tokenRequestFunc func(ctx context.Context, endpoint, token string) (*http.Request, error)

// platformCalls are the calls outside the OAuth code exchange, which every platform shapes differently.
type platformCalls struct {
	revokeURL       string
	revokeRequest   tokenRequestFunc
	userInfoURL     string
	userInfoRequest tokenRequestFunc
	decodeAccount   func(body io.Reader) (*Account, error)
}

// oauthProvider serves the platforms that speak standard OAuth 2.0 for the code exchange.
type oauthProvider struct {
	platform models.Platform
	oauth    *oauth2.Config
	calls    platformCalls
	client   *http.Client
	breaker  *breaker
	logger   *slog.Logger
}

func newOAuthProvider(platform models.Platform, cfg Config, endpoint oauth2.Endpoint, calls platformCalls, deps Dependencies) *oauthProvider {
	endpoint.AuthURL = endpointOrDefault(cfg.AuthURL, endpoint.AuthURL)
	endpoint.TokenURL = endpointOrDefault(cfg.TokenURL, endpoint.TokenURL)
	calls.revokeURL = endpointOrDefault(cfg.RevokeURL, calls.revokeURL)
	calls.userInfoURL = endpointOrDefault(cfg.UserInfoURL, calls.userInfoURL)

	return &oauthProvider{
		platform: platform,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		calls:   calls,
		client:  deps.HTTPClient,
		breaker: newBreaker(platform, deps.Metrics),
		logger:  deps.Logger.With("module", "provider", "platform", string(platform)),
	}
}

func (p *oauthProvider) Platform() models.Platform {
	return p.platform
}

func (p *oauthProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *oauthProvider) Exchange(ctx context.Context, code string) (*Token, error) {
	var token *oauth2.Token

	err := p.breaker.do("exchange", func() error {
		var exchangeErr error

		token, exchangeErr = p.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.client), code)

		return exchangeErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	result := &Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if scope, ok := token.Extra("scope").(string); ok {
		result.Scope = scope
	}

	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		result.ExpiresAt = &expiry
	}

	return result, nil
}

func (p *oauthProvider) Revoke(ctx context.Context, token string) error {
	return p.breaker.do("revoke", func() error {
		req, err := p.calls.revokeRequest(ctx, p.calls.revokeURL, token)
		if err != nil {
			return fmt.Errorf("failed to build revocation request: %w", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRevocationFailed, err)
		}

		defer func() {
			_ = resp.Body.Close()
		}()

		if err := checkStatus(resp, ErrRevocationFailed); err != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			p.logger.WarnContext(ctx, "Revocation rejected by provider", "status", resp.StatusCode, "body", string(body))

			return err
		}

		return nil
	})
}

func (p *oauthProvider) AccountInfo(ctx context.Context, accessToken string) (*Account, error) {
	var account *Account

	err := p.breaker.do("account_info", func() error {
		req, err := p.calls.userInfoRequest(ctx, p.calls.userInfoURL, accessToken)
		if err != nil {
			return fmt.Errorf("failed to build account request: %w", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}

		defer func() {
			_ = resp.Body.Close()
		}()

		if err := checkStatus(resp, ErrExternalResponse); err != nil {
			return err
		}

		account, err = p.calls.decodeAccount(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to decode account: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func formRevokeRequest(values func(token string) url.Values) tokenRequestFunc {
	return func(ctx context.Context, revokeURL, token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(values(token).Encode()))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		return req, nil
	}
}

func bearerRequest(ctx context.Context, endpoint, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return req, nil
}

// decodeOpenIDAccount reads an OpenID Connect userinfo document.
func decodeOpenIDAccount(body io.Reader) (*Account, error) {
	var claims struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}

	if err := json.NewDecoder(body).Decode(&claims); err != nil {
		return nil, err
	}

	return &Account{ID: claims.Sub, DisplayName: claims.Name, Email: claims.Email, ProfilePicture: claims.Picture}, nil
}

// NewGoogle creates the Google Ads provider.
func NewGoogle(cfg Config, deps Dependencies) Provider {
	return newOAuthProvider(models.PlatformGoogle, cfg, endpoints.Google, platformCalls{
		revokeURL: googleRevokeURL,
		revokeRequest: formRevokeRequest(func(token string) url.Values {
			return url.Values{"token": {token}}
		}),
		userInfoURL:     googleUserInfoURL,
		userInfoRequest: bearerRequest,
		decodeAccount:   decodeOpenIDAccount,
	}, deps)
}

// withAccessToken returns endpoint with the Graph API access_token query parameter set.
func withAccessToken(endpoint, token string, extra url.Values) (string, error) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	query := target.Query()
	for key, values := range extra {
		query[key] = values
	}

	query.Set("access_token", token)
	target.RawQuery = query.Encode()

	return target.String(), nil
}

// NewFacebook creates the Meta (Facebook) provider. Revocation deletes the app's permissions for the user.
func NewFacebook(cfg Config, deps Dependencies) Provider {
	revoke := func(ctx context.Context, revokeURL, token string) (*http.Request, error) {
		target, err := withAccessToken(revokeURL, token, nil)
		if err != nil {
			return nil, err
		}

		return http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	}

	me := func(ctx context.Context, userInfoURL, token string) (*http.Request, error) {
		target, err := withAccessToken(userInfoURL, token, url.Values{"fields": {"id,name,email,picture"}})
		if err != nil {
			return nil, err
		}

		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}

	decode := func(body io.Reader) (*Account, error) {
		var profile struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Email   string `json:"email"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}

		if err := json.NewDecoder(body).Decode(&profile); err != nil {
			return nil, err
		}

		return &Account{ID: profile.ID, DisplayName: profile.Name, Email: profile.Email, ProfilePicture: profile.Picture.Data.URL}, nil
	}

	return newOAuthProvider(models.PlatformFacebook, cfg, endpoints.Facebook, platformCalls{
		revokeURL:       facebookRevokeURL,
		revokeRequest:   revoke,
		userInfoURL:     facebookUserInfoURL,
		userInfoRequest: me,
		decodeAccount:   decode,
	}, deps)
}

// NewLinkedIn creates the LinkedIn Marketing provider.
func NewLinkedIn(cfg Config, deps Dependencies) Provider {
	return newOAuthProvider(models.PlatformLinkedIn, cfg, endpoints.LinkedIn, platformCalls{
		revokeURL: linkedInRevokeURL,
		revokeRequest: formRevokeRequest(func(token string) url.Values {
			return url.Values{
				"client_id":     {cfg.ClientID},
				"client_secret": {cfg.ClientSecret},
				"token":         {token},
			}
		}),
		userInfoURL:     linkedInUserInfoURL,
		userInfoRequest: bearerRequest,
		decodeAccount:   decodeOpenIDAccount,
	}, deps)
}
