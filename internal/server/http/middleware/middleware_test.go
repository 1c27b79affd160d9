package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	testhelpers "github.com/polkiloo/pointsledger/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp.Code
}

func TestOperatorRequired(t *testing.T) {
	cases := []struct {
		name     string
		verifier testhelpers.VerifierStub
		header   string
		want     int
	}{
		{name: "disabled", verifier: testhelpers.VerifierStub{}, want: http.StatusOK},
		{name: "missing token", verifier: testhelpers.VerifierStub{Token: "secret"}, want: http.StatusUnauthorized},
		{name: "wrong token", verifier: testhelpers.VerifierStub{Token: "secret"}, header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "not bearer", verifier: testhelpers.VerifierStub{Token: "secret"}, header: "Basic secret", want: http.StatusUnauthorized},
		{name: "valid token", verifier: testhelpers.VerifierStub{Token: "secret"}, header: "bearer secret", want: http.StatusOK},
		{name: "verifier failure", verifier: testhelpers.VerifierStub{Err: errors.New("boom")}, header: "Bearer secret", want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(OperatorRequired(tc.verifier))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			if got := serve(router, tc.header); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
	c.Request.Header.Set("Authorization", "Bearer  abc ")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}
}

func TestRequestLogger(t *testing.T) {
	var levels []slog.Level
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			levels = append(levels, a.Value.Any().(slog.Level))
		}
		return a
	}})
	logger := slog.New(handler)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	if len(levels) != 2 || levels[0] != slog.LevelInfo || levels[1] != slog.LevelError {
		t.Fatalf("unexpected log levels: %v", levels)
	}
}
