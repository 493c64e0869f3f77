package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"melodist/config"
	"melodist/internal/auth"
	"melodist/internal/logging"
	"melodist/internal/policy"
	"melodist/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func adminRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), []string{" Ops@Melodist.io "})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	r := gin.New()
	me := r.Group("/me", AuthRequired(&cfg.JWT, LoginPath))
	me.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "email": GetEmail(c)})
	})
	adm := r.Group("/admin", AuthRequired(&cfg.JWT, AdminLoginPath), AdminRequired(engine, logging.Discard()))
	adm.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": IsAdmin(c)})
	})
	return r
}

func do(r http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func token(t *testing.T, cfg *config.Config, id uint, email string, verified bool) string {
	t.Helper()
	tok, _, err := auth.GenerateAccessToken(&cfg.JWT, id, email, verified)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func TestAuthRequiredRedirectsToLogin(t *testing.T) {
	cfg := config.Default()
	r := adminRouter(t, cfg)

	w, body := do(r, "/me", "")
	if w.Code != http.StatusUnauthorized || body["redirect"] != LoginPath {
		t.Fatalf("expected 401 with %s redirect, got %d %v", LoginPath, w.Code, body)
	}
	w, body = do(r, "/me", "not-a-jwt")
	if w.Code != http.StatusUnauthorized || body["redirect"] != LoginPath {
		t.Fatalf("expected 401 for a bad token, got %d %v", w.Code, body)
	}
	w, body = do(r, "/me", token(t, cfg, 7, "a@example.com", false))
	if w.Code != http.StatusOK || body["email"] != "a@example.com" || body["user_id"] != float64(7) {
		t.Fatalf("expected principal, got %d %v", w.Code, body)
	}
}

func TestAdminRequired(t *testing.T) {
	cfg := config.Default()
	r := adminRouter(t, cfg)

	w, body := do(r, "/admin/ping", "")
	if w.Code != http.StatusUnauthorized || body["redirect"] != AdminLoginPath {
		t.Fatalf("expected 401 with admin login redirect, got %d %v", w.Code, body)
	}
	w, body = do(r, "/admin/ping", token(t, cfg, 1, "artist@example.com", true))
	if w.Code != http.StatusForbidden || body["redirect"] != DashboardPath {
		t.Fatalf("expected 403 with dashboard redirect, got %d %v", w.Code, body)
	}
	w, body = do(r, "/admin/ping", token(t, cfg, 3, "ops@melodist.io", false))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unverified allow-listed address, got %d %v", w.Code, body)
	}
	w, body = do(r, "/admin/ping", token(t, cfg, 2, "OPS@melodist.io", true))
	if w.Code != http.StatusOK || body["admin"] != true {
		t.Fatalf("expected admin access, got %d %v", w.Code, body)
	}
}

func TestRateLimitSetsHeadersAndRefuses(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.NewMemory(ratelimit.MemoryConfig{Now: func() time.Time { return now }})
	r := gin.New()
	r.Use(RateLimit(limiter, 2, time.Minute, logging.Discard()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		w, _ := do(r, "/", "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("expected limit header, got %q", w.Header().Get("X-RateLimit-Limit"))
		}
	}
	w, _ := do(r, "/", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logging.Discard()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != "req-123" || w.Body.String() != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q / %q", w.Header().Get(RequestIDHeader), w.Body.String())
	}

	w, _ = do(r, "/", "")
	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get(RequestIDHeader))
	}
}

func TestRequestLoggerTagsAdminRequests(t *testing.T) {
	cfg := config.Default()
	engine, err := policy.NewEngine(context.Background(), []string{"ops@melodist.io"})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	adm := r.Group("/admin", AuthRequired(&cfg.JWT, AdminLoginPath), AdminRequired(engine, logging.Discard()))
	adm.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w, _ := do(r, "/admin/ping", token(t, cfg, 2, "ops@melodist.io", true))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["admin"] != true || line["user_id"] != float64(2) {
		t.Fatalf("expected admin request to be tagged, got %v", line)
	}
}
