package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/redis"
)

// listStore is the slice of the redis client the cache needs.
type listStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
	OrderListKey(generation int64, userID, role string) string
	OrderListGenerationKey() string
	FetchGuardKey(userID, role string) string
}

// listCache keeps a short-lived, per-(user, role) snapshot of the filtered
// order list. Invalidation bumps a generation counter baked into every key,
// so one INCR stales every viewer's entry and the old keys simply expire.
type listCache struct {
	store    listStore
	ttl      time.Duration
	guardTTL time.Duration
	logg     *logger.Logger
}

func newListCache(store listStore, ttl, guardTTL time.Duration, logg *logger.Logger) *listCache {
	return &listCache{store: store, ttl: ttl, guardTTL: guardTTL, logg: logg}
}

func (c *listCache) get(ctx context.Context, userID, role string) ([]models.Order, bool) {
	if c.store == nil {
		return nil, false
	}
	generation, err := c.generation(ctx)
	if err != nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.store.OrderListKey(generation, userID, role))
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logg.Warn(ctx, "order list cache read failed: "+err.Error())
		return nil, false
	}

	var orders []models.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		c.logg.Warn(ctx, "order list cache entry corrupt, discarding")
		return nil, false
	}
	return orders, true
}

func (c *listCache) set(ctx context.Context, userID, role string, orders []models.Order) {
	if c.store == nil {
		return
	}
	generation, err := c.generation(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(orders)
	if err != nil {
		c.logg.Warn(ctx, "order list cache encode failed: "+err.Error())
		return
	}
	if err := c.store.Set(ctx, c.store.OrderListKey(generation, userID, role), payload, c.ttl); err != nil {
		c.logg.Warn(ctx, "order list cache write failed: "+err.Error())
	}
}

// invalidate stales every viewer's cached list.
func (c *listCache) invalidate(ctx context.Context) {
	if c.store == nil {
		return
	}
	if _, err := c.store.Incr(ctx, c.store.OrderListGenerationKey()); err != nil {
		c.logg.Warn(ctx, "order list cache invalidation failed: "+err.Error())
	}
}

// tryAcquireGuard marks a fetch in flight for this viewer. A false return
// means another fetch is already running and the caller should reuse its
// result rather than piling on.
func (c *listCache) tryAcquireGuard(ctx context.Context, userID, role string) bool {
	if c.store == nil {
		return true
	}
	acquired, err := c.store.SetNX(ctx, c.store.FetchGuardKey(userID, role), "1", c.guardTTL)
	if err != nil {
		// Guard is an optimization; on redis trouble, fetch anyway.
		return true
	}
	return acquired
}

func (c *listCache) releaseGuard(ctx context.Context, userID, role string) {
	if c.store == nil {
		return
	}
	if err := c.store.Del(ctx, c.store.FetchGuardKey(userID, role)); err != nil {
		c.logg.Warn(ctx, "fetch guard release failed: "+err.Error())
	}
}

// ListCacheInvalidator exposes cache invalidation to processes that do not
// run the full order service, such as the change feed worker.
type ListCacheInvalidator struct {
	cache *listCache
}

func NewListCacheInvalidator(store listStore, logg *logger.Logger) *ListCacheInvalidator {
	return &ListCacheInvalidator{cache: newListCache(store, 0, 0, logg)}
}

func (i *ListCacheInvalidator) InvalidateListCache(ctx context.Context) {
	i.cache.invalidate(ctx)
}

func (c *listCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.store.Get(ctx, c.store.OrderListGenerationKey())
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	generation, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return generation, nil
}
