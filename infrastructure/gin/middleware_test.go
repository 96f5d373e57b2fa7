package gin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/geotagger/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
)

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	reqID := w.Header().Get("X-Request-ID")
	const expectedLen = 32
	if len(reqID) != expectedLen {
		t.Errorf("generated request ID length = %d, want %d", len(reqID), expectedLen)
	}
}

func TestRequestIDLoggerMiddleware_PreservesExistingID(t *testing.T) {
	t.Parallel()

	const inboundID = "article-ingest-7f3a"

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))

	var gotCtxID string
	router.GET("/test", func(c *ginpkg.Context) {
		gotCtxID = c.GetString(infragin.RequestIDKey)
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", inboundID)
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != inboundID {
		t.Errorf("response X-Request-ID = %q, want %q", got, inboundID)
	}
	if gotCtxID != inboundID {
		t.Errorf("gin context request_id = %q, want %q", gotCtxID, inboundID)
	}
}

func TestRequestIDLoggerMiddleware_RejectsOversizedID(t *testing.T) {
	t.Parallel()

	oversizedID := strings.Repeat("x", 200)
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", oversizedID)
	router.ServeHTTP(w, req)

	gotID := w.Header().Get("X-Request-ID")
	if gotID == oversizedID || gotID == "" {
		t.Errorf("X-Request-ID = %q, want a freshly generated ID", gotID)
	}
}

func TestRequestIDLoggerMiddleware_StoresLoggerInContext(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))

	var gotLogger logger.Logger
	router.GET("/test", func(c *ginpkg.Context) {
		gotLogger = logger.FromContext(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	if gotLogger == nil {
		t.Fatal("logger.FromContext returned nil inside handler")
	}
}

func TestHealth_DegradedDependency(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName:    "geotagger",
		ServiceVersion: "test",
		Checks: map[string]infragin.HealthChecker{
			"redis": infragin.PingHealthChecker("Redis", infragin.HealthStatusDegraded, func() error {
				return http.ErrServerClosed
			}),
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body infragin.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != infragin.HealthStatusDegraded {
		t.Errorf("status = %q, want %q", body.Status, infragin.HealthStatusDegraded)
	}
	if body.Checks["redis"].Message != "Redis connection failed" {
		t.Errorf("redis message = %q", body.Checks["redis"].Message)
	}
}

func TestHealth_UnhealthyDatabase(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName: "geotagger",
		Checks: map[string]infragin.HealthChecker{
			"database": infragin.PingHealthChecker("Database", infragin.HealthStatusUnhealthy, func() error {
				return http.ErrHandlerTimeout
			}),
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{AllowedOrigins: []string{"https://newsroom.example"}}))
	router.POST("/predict", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/predict", http.NoBody)
	req.Header.Set("Origin", "https://newsroom.example")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://newsroom.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))
	router.GET("/test", func(c *ginpkg.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}
