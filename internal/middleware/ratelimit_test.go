// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableRedis forces the limiters onto their in-process fallback.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiter_FallsBackWhenRedisIsDown(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit:   PerMinute(1, 1),
		KeyFunc: KeyByIP,
	})
	h := rl.Handler(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRoleRateLimiter_AdminHasLargerBudget(t *testing.T) {
	limits := DefaultRoleLimits(PerMinute(1, 1))
	assert.Equal(t, 10, limits[RoleAdmin].Burst)

	h := RoleRateLimiter(unreachableRedis(t), limits)(okHandler)

	send := func(userID, role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), &SessionClaims{UserID: userID, Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("u1", RoleUser))
	assert.Equal(t, http.StatusTooManyRequests, send("u1", RoleUser))

	for range 5 {
		assert.Equal(t, http.StatusOK, send("a1", RoleAdmin))
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t,
		"/v1/admin/withdrawals/{id}/approve",
		normalizeEndpoint("/v1/admin/withdrawals/5b1c3c7e-8a51-4e0e-9d6b-0f2b6f1f8c11/approve"),
	)
	assert.Equal(t, "/v1/users/{id}", normalizeEndpoint("/v1/users/42"))
}

func TestCredentialRateLimiter_PerIPAndEndpoint(t *testing.T) {
	h := CredentialRateLimiter(unreachableRedis(t), PerMinute(1, 1))(okHandler)

	send := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/v1/auth/login", "198.51.100.4:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("/v1/auth/login", "198.51.100.4:1001"))
	assert.Equal(t, http.StatusOK, send("/v1/auth/register", "198.51.100.4:1002"))
	assert.Equal(t, http.StatusOK, send("/v1/auth/login", "198.51.100.9:1000"))
}

func TestKeyByIP_PrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.5")
	assert.Equal(t, "ratelimit:ip:192.0.2.5", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.0.2.77")
	assert.Equal(t, "ratelimit:ip:192.0.2.77", KeyByIP(req))
}
