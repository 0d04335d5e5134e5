package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-yamdb/internal/config"

	"github.com/gin-gonic/gin"
)

func TestSetupRouter_BasicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	r := SetupRouter(cfg, nil)

	// Health route should exist and return 200
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health should return 200, got %d", w.Code)
	}

	// Config route should exist and return 200
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("GET", "/config", nil)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Errorf("GET /config should return 200, got %d", w2.Code)
	}
}

func TestSetupRouter_Subpath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Subpath = "/api"
	r := SetupRouter(cfg, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/health should return 200, got %d", w.Code)
	}
}

func TestConfigHandler_HidesSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "top-secret"
	cfg.Mail.Password = "mail-pass"
	cfg.Mail.Backend = "smtp"
	r := gin.New()
	r.GET("/config", configHandler(cfg))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/config", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "top-secret") || strings.Contains(body, "mail-pass") {
		t.Errorf("config leaked a secret: %s", body)
	}
	if !strings.Contains(body, `"smtp"`) {
		t.Errorf("expected mail backend in config: %s", body)
	}
}

func TestHealth_WithDatabase(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected response to contain 'ok', got: %s", w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/health", "", nil)
	if w.Header().Get(requestIDHeader) == "" {
		t.Errorf("expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	env.r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected client request id to be echoed, got %q", got)
	}
}
