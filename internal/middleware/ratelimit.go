// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/vipledger/internal/core"
)

type RateLimitConfig struct {
	Limit     redis_rate.Limit
	LimitFunc func(*http.Request) redis_rate.Limit
	KeyFunc   func(*http.Request) string
	FailOpen  bool
}

// RateLimiter enforces a GCRA budget in Redis. When Redis is unreachable it
// falls back to an in-process token bucket per key, so a single replica keeps
// limiting on its own.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.LimitFunc == nil {
		limit := cfg.Limit
		cfg.LimitFunc = func(*http.Request) redis_rate.Limit { return limit }
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)
		limit := rl.config.LimitFunc(r)

		res, err := rl.allow(r.Context(), key, limit)
		if err != nil {
			if rl.config.FailOpen {
				slog.WarnContext(r.Context(), "rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.NewAppError(
				err,
				"service unavailable",
				http.StatusServiceUnavailable,
				"SERVICE_UNAVAILABLE",
			))
			return
		}

		setRateLimitHeaders(w, res, limit)

		if res.Allowed == 0 {
			slog.InfoContext(r.Context(), "rate limited",
				"key", key,
				"path", r.URL.Path,
			)
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, limit)
	if err != nil {
		return rl.fallback.allow(key, limit)
	}
	return res, nil
}

// RoleRateLimiter limits authenticated requests per user with a budget chosen
// by role. Unknown roles get the USER budget.
func RoleRateLimiter(
	rdb *redis.Client,
	limits map[string]redis_rate.Limit,
) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		KeyFunc: KeyByUser,
		LimitFunc: func(r *http.Request) redis_rate.Limit {
			if limit, ok := limits[GetUserRole(r.Context())]; ok {
				return limit
			}
			return limits[RoleUser]
		},
	}).Handler
}

// CredentialRateLimiter guards login and registration. The budget is per
// client IP and endpoint so password guessing on one phone number cannot
// borrow from the general request budget.
func CredentialRateLimiter(
	rdb *redis.Client,
	limit redis_rate.Limit,
) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		Limit:   limit,
		KeyFunc: KeyByIPAndEndpoint,
	}).Handler
}

// DefaultRoleLimits scales the configured budget tenfold for administrators,
// who page through every user's records.
func DefaultRoleLimits(base redis_rate.Limit) map[string]redis_rate.Limit {
	admin := base
	admin.Rate *= 10
	admin.Burst *= 10
	return map[string]redis_rate.Limit{
		RoleUser:  base,
		RoleAdmin: admin,
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + clientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint collapses ids in the path so /admin/withdrawals/{id}
// shares one budget across requests.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if isUUID(part) || isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	return s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-'
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: &core.ErrorBody{
			Code: "RATE_LIMITED",
			Message: fmt.Sprintf(
				"Too many requests. Retry after %d seconds.",
				retryAfter,
			),
		},
	})
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localLimiter is the per-replica fallback. Entries idle for entryTTL are
// evicted on the next sweep.
type localLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	swept   time.Time
}

const entryTTL = 10 * time.Minute

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		entries: make(map[string]*limiterEntry),
		swept:   time.Now(),
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Period <= 0 || limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate limit %v", limit)
	}

	perSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSec)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > entryTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastAccess) > entryTTL {
				delete(l.entries, k)
			}
		}
		l.swept = now
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(entry.limiter.TokensAt(now)), 0)

	return res, nil
}

// FromWindow converts a request budget over an arbitrary window.
func FromWindow(requests, burst int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  burst,
		Period: window,
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return FromWindow(rate, burst, time.Minute)
}
