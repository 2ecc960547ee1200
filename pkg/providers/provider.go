// Package providers implements the OAuth flows of the supported ad platforms:
// authorization URLs, code exchange and best-effort token revocation.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/unyte/adconnect/pkg/models"
)

var (
	// ErrExchangeFailed is returned when a provider refuses or fails an authorization code exchange.
	ErrExchangeFailed = errors.New("token exchange failed")
	// ErrRevocationFailed is returned when a provider revocation call fails or answers non-2xx.
	ErrRevocationFailed = errors.New("token revocation failed")
	// ErrProviderNotConfigured is returned for platforms missing from the OAuth configuration.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrExternalResponse marks a provider answer that was received but not successful.
	ErrExternalResponse = errors.New("unsuccessful provider response")
)

// Account is the provider-side profile of the user who granted a connection.
type Account struct {
	ID             string
	DisplayName    string
	Email          string
	ProfilePicture string
}

// Token is the credential set returned by a successful authorization code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    *time.Time
}

// Provider is the OAuth surface of a single ad platform.
type Provider interface {
	Platform() models.Platform
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	Revoke(ctx context.Context, token string) error
	AccountInfo(ctx context.Context, accessToken string) (*Account, error)
}

// Config holds the OAuth client settings of one platform. Endpoint URLs default to the
// platform's production endpoints when empty.
type Config struct {
	ClientID     string   `yaml:"client_id"     validate:"required"`
	ClientSecret string   `yaml:"client_secret" validate:"required"`
	RedirectURL  string   `yaml:"redirect_url"  validate:"required,url"`
	Scopes       []string `yaml:"scopes"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	RevokeURL    string   `yaml:"revoke_url"`
	UserInfoURL  string   `yaml:"userinfo_url"`
}

func endpointOrDefault(configured, fallback string) string {
	if configured != "" {
		return configured
	}

	return fallback
}

// statusError is a non-2xx provider response.
type statusError struct {
	sentinel   error
	statusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.sentinel, e.statusCode)
}

func (e *statusError) Unwrap() error {
	return e.sentinel
}

// checkStatus turns a non-2xx provider response into an error carrying the status code.
func checkStatus(resp *http.Response, sentinel error) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &statusError{sentinel: sentinel, statusCode: resp.StatusCode}
	}

	return nil
}
