package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	cfg.AppRequestTimeout = 5 * time.Second
	return cfg
}

func newRouter(t *testing.T, readiness map[string]app.ReadinessCheck) (http.Handler, memstore.Chart, *observability.Metrics) {
	t.Helper()
	cfg := testConfig(t)
	store := memstore.New()
	chart := store.SeedChart(1)
	metrics := observability.NewMetrics()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ledger := app.BuildLedger(cfg, app.MemoryStores(store), app.LedgerDeps{Metrics: metrics, Redis: client})
	router := app.NewRouter(app.RouterParams{
		Config:            cfg,
		AccountingHandler: ledger.Handler,
		JobHandler:        jobs.NewHandler(nil, nil),
		Metrics:           metrics,
		Readiness:         readiness,
	})
	return router, chart, metrics
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:4000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	router, _, _ := newRouter(t, nil)

	rec := serve(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Ratelimit-Limit"))
}

func TestReadiness(t *testing.T) {
	router, _, _ := newRouter(t, map[string]app.ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	rec := serve(router, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["postgres"])
	require.Contains(t, body["redis"], "refused")
}

func entry(chart memstore.Chart, debit, credit string) string {
	return fmt.Sprintf(`{"entry_date":"2024-03-01","narration":"capital","lines":[`+
		`{"account_id":%d,"debit":%q},{"account_id":%d,"credit":%q}]}`,
		chart["1100"], debit, chart["3100"], credit)
}

func TestLedgerMountedUnderAPI(t *testing.T) {
	router, chart, _ := newRouter(t, nil)

	body := entry(chart, "500", "500")
	rec := serve(router, http.MethodPost, "/api/companies/1/journals", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/companies/1/reports/trial-balance?as_of=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, fmt.Sprintf("/api/companies/1/ledgers/account/%d?from=2024-03-01&to=2024-03-31", chart["1100"]), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, "/companies/1/journals", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointCountsPostings(t *testing.T) {
	router, chart, _ := newRouter(t, nil)
	rec := serve(router, http.MethodPost, "/api/companies/1/journals", entry(chart, "10", "5"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `ledger_postings_total{result="rejected"} 1`)
	require.Contains(t, rec.Body.String(), `ledger_http_requests_total{code="422"`)

	rec = serve(router, http.MethodGet, "/jobs/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
