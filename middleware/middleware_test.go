package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		if zerolog.Ctx(c.Request.Context()).GetLevel() == zerolog.Disabled {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, c.GetString("trace_id"))
	})
	return r
}

func TestLoggingMiddlewareUsesTraceParent(t *testing.T) {
	r := newRouter(LoggingMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceParentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get(TraceIDHeader); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id header %q", got)
	}
	if rr.Body.String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id not stored on context, body=%q", rr.Body.String())
	}
}

func TestLoggingMiddlewareFallsBackToHeaderThenGenerates(t *testing.T) {
	r := newRouter(LoggingMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "abc123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Get(TraceIDHeader); got != "abc123" {
		t.Fatalf("expected X-Trace-ID to be reused, got %q", got)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if got := rr.Header().Get(TraceIDHeader); len(got) != 32 {
		t.Fatalf("expected generated 32 char trace id, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"https://portfolio.example.test"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://portfolio.example.test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://portfolio.example.test" {
		t.Fatalf("expected allowed origin echoed, headers=%v", rr.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.test")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected unknown origin to get no CORS headers")
	}
}

func TestPrometheusMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	r := newRouter(PrometheusMiddleware())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
