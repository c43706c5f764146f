package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobCollectors(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	require.NoError(t, jobs.Track("gl_integrity").End(nil))

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_jobs_total{job="gl_integrity",status="success"} 1`)
	require.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `ledger_http_request_duration_seconds_bucket{route="/test"`)
}

func TestObservePosting(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObservePosting("posted", 20*time.Millisecond)
	metrics.ObservePosting("posted", 30*time.Millisecond)
	metrics.ObservePosting("rejected", time.Millisecond)

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_postings_total{result="posted"} 2`)
	require.Contains(t, body, `ledger_postings_total{result="rejected"} 1`)
	require.Contains(t, body, "ledger_posting_duration_seconds_count 3")

	var nilMetrics *Metrics
	require.NotPanics(t, func() { nilMetrics.ObservePosting("posted", time.Second) })
}
