// AngelaMos | 2026
// cache.go

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/vipledger/internal/core"
)

// DashboardCache stores rendered dashboards per user. Entries are written
// under the generation observed before the data was loaded; Invalidate bumps
// the generation, so a dashboard built from pre-mutation reads can never be
// served afterwards. Implementations are best effort: failures degrade to a
// cache miss.
type DashboardCache interface {
	Get(ctx context.Context, userID string) (d *Dashboard, gen int64, ok bool)
	Set(ctx context.Context, userID string, gen int64, d *Dashboard)
	Invalidate(ctx context.Context, userIDs ...string)
}

// noGeneration marks a generation that could not be read. Set ignores it.
const noGeneration int64 = -1

type redisDashboardCache struct {
	rdb    *core.Redis
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisDashboardCache(rdb *core.Redis, ttl time.Duration) DashboardCache {
	return &redisDashboardCache{
		rdb:    rdb,
		client: rdb.Client,
		ttl:    ttl,
		logger: slog.Default().With("component", "dashboard_cache"),
	}
}

func (c *redisDashboardCache) genKey(userID string) string {
	return c.rdb.Key("dashboard", "gen", userID)
}

func (c *redisDashboardCache) entryKey(userID string, gen int64) string {
	return c.rdb.Key("dashboard", userID, strconv.FormatInt(gen, 10))
}

func (c *redisDashboardCache) Get(ctx context.Context, userID string) (*Dashboard, int64, bool) {
	gen, err := c.client.Get(ctx, c.genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		c.logger.Warn("dashboard generation read failed", "user_id", userID, "error", err)
		return nil, noGeneration, false
	}

	raw, err := c.client.Get(ctx, c.entryKey(userID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.logger.Warn("dashboard cache read failed", "user_id", userID, "error", err)
		return nil, gen, false
	}

	var d Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		c.logger.Warn("dashboard cache entry corrupt", "user_id", userID, "error", err)
		return nil, gen, false
	}

	return &d, gen, true
}

func (c *redisDashboardCache) Set(ctx context.Context, userID string, gen int64, d *Dashboard) {
	if gen < 0 {
		return
	}

	raw, err := json.Marshal(d)
	if err != nil {
		c.logger.Warn("dashboard cache encode failed", "user_id", userID, "error", err)
		return
	}

	if err := c.client.Set(ctx, c.entryKey(userID, gen), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("dashboard cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate advances each user's generation. Entries under older
// generations are never read again and expire with their TTL.
func (c *redisDashboardCache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, c.genKey(id))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("dashboard cache invalidate failed", "users", len(userIDs), "error", err)
	}
}

type noopDashboardCache struct{}

func NewNoopDashboardCache() DashboardCache {
	return noopDashboardCache{}
}

func (noopDashboardCache) Get(context.Context, string) (*Dashboard, int64, bool) {
	return nil, noGeneration, false
}

func (noopDashboardCache) Set(context.Context, string, int64, *Dashboard) {}

func (noopDashboardCache) Invalidate(context.Context, ...string) {}
