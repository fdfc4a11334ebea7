package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/baseplate/backoffice/config"
	"github.com/baseplate/backoffice/internal/api/handlers"
	"github.com/baseplate/backoffice/internal/core/modules"
)

func newTestRouter(t *testing.T, origins ...string) *Router {
	t.Helper()
	cat, err := modules.NewCatalog(modules.Options{})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	h := handlers.NewModuleHandler(cat.Registry, handlers.BindCatalog(cat)...)
	return NewRouter(h, config.CORSConfig{AllowedOrigins: origins})
}

func TestHealthAndRequestID(t *testing.T) {
	engine := newTestRouter(t).Setup(gin.TestMode)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request id")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := newTestRouter(t, "http://localhost:5173").Setup(gin.TestMode)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/modules/users/records", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestHandlerCompressesLargeResponses(t *testing.T) {
	h := newTestRouter(t).Handler(gin.TestMode)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/modules", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("content encoding = %q", w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), `"transactions"`) {
		t.Error("decompressed body does not list modules")
	}
}
