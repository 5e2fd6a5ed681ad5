package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/config"
	"github.com/iliyamo/event-participation/internal/utils"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	const secret = "test-secret"
	e := echo.New()
	g := e.Group("/admin", JWTAuth(secret), RequireRole("ADMIN"))
	g.GET("/whoami", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
	})

	admin, _ := utils.NewAccessToken(secret, 7, "ADMIN", 5, time.Now())
	user, _ := utils.NewAccessToken(secret, 8, "USER", 5, time.Now())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + user.Token, http.StatusForbidden},
		{"admin", "Bearer " + admin.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if rec := serve(e, req); rec.Code != tt.want {
				t.Fatalf("status = %d; want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("got %d %q", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Fatal("cache ran without a redis client")
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events")
	c.Set(ctxUserID, uint64(5))

	tests := map[string]string{
		"ip":            "rl:ip:10.0.0.1",
		"user":          "rl:user:5",
		"route":         "rl:route:GET /v1/events",
		"ip_user":       "rl:ip:10.0.0.1:user:5",
		"ip_user_route": "rl:ip:10.0.0.1:user:5:route:GET /v1/events",
	}
	for strategy, want := range tests {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("%s: key = %q; want %q", strategy, got, want)
		}
	}
}

func TestParseBucketReply(t *testing.T) {
	res, err := parseBucketReply([]any{int64(0), int64(0), int64(1500)})
	if err != nil {
		t.Fatalf("parseBucketReply: %v", err)
	}
	if res.Allowed || res.Retry != 1500*time.Millisecond {
		t.Fatalf("got %+v", res)
	}
	if _, err := parseBucketReply("OK"); err == nil {
		t.Fatal("expected error for malformed reply")
	}
}

func TestCacheKeySeparatesResources(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	e := echo.New()
	key := func(target string) string {
		return cacheKey(cfg, e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
	}
	if key("/v1/events/1") == key("/v1/events/2") {
		t.Fatal("different events share a cache key")
	}
	if key("/v1/events?from=0") == key("/v1/events?from=10") {
		t.Fatal("different pages share a cache key")
	}
	if key("/v1/events?from=0") != key("/v1/events?from=0") {
		t.Fatal("cache key is not stable")
	}
}
