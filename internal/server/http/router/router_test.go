package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/pointsledger/internal/metrics"
	"github.com/polkiloo/pointsledger/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/pointsledger/internal/test"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveCommand("CreateEarnedTransaction", nil)

	engine := Setup(testhelpers.OpsFacadeStub{}, testhelpers.VerifierStub{Token: "secret"}, reg, logger)

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for healthz, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "pointsledger_commands_total") {
		t.Fatalf("expected metrics exposition, got %d %q", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/ops/interventions", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ops/interventions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for empty interventions, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/ops/halts/expiration/lb-1/resume", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown halt, got %d", resp.Code)
	}
}

var _ handlers.OpsFacade = (*testhelpers.OpsFacadeStub)(nil)
