package middleware

import (
	"VaultKeeper/internal/metrics"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWithMetrics_CountsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	h := WithMetrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	n, err := testutil.GatherAndCount(reg, "vaultkeeper_http_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}
