// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/vipledger/internal/core"
)

type Handler struct {
	dbStats     func() sql.DBStats
	dbPing      func(ctx context.Context) error
	dbReconnect func(ctx context.Context) error
	redisStats  func() *redis.PoolStats
	redisPing   func(ctx context.Context) error
}

type HandlerConfig struct {
	DBStats     func() sql.DBStats
	DBPing      func(ctx context.Context) error
	DBReconnect func(ctx context.Context) error
	RedisStats  func() *redis.PoolStats
	RedisPing   func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:     cfg.DBStats,
		dbPing:      cfg.DBPing,
		dbReconnect: cfg.DBReconnect,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/diagnostics", h.GetSystemStats)
		r.Get("/admin/diagnostics/db", h.GetDatabaseStats)
		r.Get("/admin/diagnostics/redis", h.GetRedisStats)
		r.Get("/admin/diagnostics/runtime", h.GetRuntimeStats)
		r.Post("/admin/diagnostics/db/reconnect", h.ReconnectDatabase)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: runtimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, DatabaseStatus{
		Healthy: pingOK(r.Context(), h.dbPing),
		Stats:   h.getDBStats(),
	})
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, RedisStatus{
		Healthy: pingOK(r.Context(), h.redisPing),
		Stats:   h.getRedisStats(),
	})
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

// ReconnectDatabase closes and reopens the connection pool. Requests in
// flight on the old pool fail with a storage error.
func (h *Handler) ReconnectDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.dbReconnect == nil {
		core.JSONError(w, core.NewAppError(
			nil,
			"reconnect not available",
			http.StatusServiceUnavailable,
			"UNAVAILABLE",
		))
		return
	}

	if err := h.dbReconnect(ctx); err != nil {
		slog.ErrorContext(ctx, "database reconnect failed", "error", err)
		core.InternalServerError(w, err)
		return
	}

	slog.InfoContext(ctx, "database pool reopened")

	core.OK(w, DatabaseStatus{
		Healthy: pingOK(ctx, h.dbPing),
		Stats:   h.getDBStats(),
	})
}

func pingOK(ctx context.Context, ping func(ctx context.Context) error) bool {
	if ping == nil {
		return false
	}
	return ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	if stats == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}
