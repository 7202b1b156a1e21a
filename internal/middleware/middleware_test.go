package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tricket/internal/config"
	"github.com/iliyamo/tricket/internal/utils"
)

func protected(secret string) *echo.Echo {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, Subject(c))
	}, JWTAuth(secret), RequireRole(utils.RoleAdmin))
	return e
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := protected("secret")

	admin, _ := utils.NewAccessToken("secret", "alice", utils.RoleAdmin, time.Minute)
	viewer, _ := utils.NewAccessToken("secret", "bob", "VIEWER", time.Minute)
	forged, _ := utils.NewAccessToken("other", "mallory", utils.RoleAdmin, time.Minute)
	expired, _ := utils.NewAccessToken("secret", "alice", utils.RoleAdmin, -time.Minute)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"admin", admin.Token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong role", viewer.Token, http.StatusForbidden},
		{"bad signature", forged.Token, http.StatusUnauthorized},
		{"expired", expired.Token, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(e, "/admin", tc.token)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
	if rec := get(e, "/admin", admin.Token); rec.Body.String() != "alice" {
		t.Fatalf("expected subject alice, got %q", rec.Body.String())
	}
}

func TestSubject_Anonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := Subject(c); got != "anon" {
		t.Fatalf("expected anon, got %q", got)
	}
}

func limited(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.POST("/token", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewFixedWindow(cfg, rdb))
	return e
}

func post(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestFixedWindow_BlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := limited(config.RateLimitConfig{Enabled: true, Limit: 2, Window: time.Hour, Prefix: "rl"}, rdb)

	for i := 0; i < 2; i++ {
		if rec := post(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
		}
	}
	rec := post(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}
	if rec := post(e, "10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("other clients are counted separately, got %d", rec.Code)
	}
}

func TestFixedWindow_FailsOpen(t *testing.T) {
	e := limited(config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute}, nil)
	for i := 0; i < 3; i++ {
		if rec := post(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("expected pass-through without redis, got %d", rec.Code)
		}
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()
	e = limited(config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}, rdb)
	for i := 0; i < 2; i++ {
		if rec := post(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("expected pass-through on redis error, got %d", rec.Code)
		}
	}
}
