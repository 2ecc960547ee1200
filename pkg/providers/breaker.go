package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
	"golang.org/x/oauth2"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// ErrCircuitOpen is returned without calling the provider while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// breaker guards every outbound call to one platform.
type breaker struct {
	platform models.Platform
	cb       *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

func newBreaker(platform models.Platform, m *metrics.Metrics) *breaker {
	settings := gobreaker.Settings{Name: string(platform)}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= breakerFailureThreshold
	}
	settings.Timeout = breakerOpenTimeout
	settings.IsSuccessful = func(err error) bool {
		return err == nil || isCallerError(err)
	}
	settings.OnStateChange = func(_ string, _ gobreaker.State, to gobreaker.State) {
		m.BreakerState.WithLabelValues(string(platform)).Set(float64(to))
	}

	return &breaker{
		platform: platform,
		cb:       gobreaker.NewCircuitBreaker(settings),
		metrics:  m,
	}
}

// do runs fn through the breaker and records the call as operation.
func (b *breaker) do(operation string, fn func() error) error {
	started := time.Now()

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%s %s: %w", b.platform, operation, ErrCircuitOpen)
	}

	b.metrics.ObservePlatformCall(string(b.platform), operation, started, err)

	return err
}

// isCallerError reports whether err was caused by the request rather than by the platform:
// a rejected or replayed authorization code, an expired token, or a cancelled request.
// Such failures say nothing about the platform's health and never trip the breaker.
func isCallerError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return isClientStatus(retrieveErr.Response.StatusCode)
	}

	var status *statusError
	if errors.As(err, &status) {
		return isClientStatus(status.statusCode)
	}

	var apiErr *tikTokAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Code < tikTokServerErrorCode
	}

	return false
}

// isClientStatus is true for 4xx responses other than rate limiting.
func isClientStatus(code int) bool {
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests
}
