package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/metrics"
)

func TestObservePlatformCall(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObservePlatformCall("google", "revoke", time.Now(), nil)
	m.ObservePlatformCall("google", "revoke", time.Now(), errors.New("boom"))
	m.ObservePlatformCall("google", "revoke", time.Now(), errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.PlatformRequests.WithLabelValues("google", "revoke", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PlatformRequests.WithLabelValues("google", "revoke", "error")), 0)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.Disconnects.WithLabelValues("linkedin", "success").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `adconnect_disconnects_total{platform="linkedin",result="success"} 1`)
}
