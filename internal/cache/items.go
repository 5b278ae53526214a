// Package cache is a best-effort read-through cache for item reads. Cache
// failures degrade to the database and are only logged by callers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kmazurek/storefront/internal/models"
)

const itemTTL = 5 * time.Minute

type ItemCache struct {
	rdb *redis.Client
}

func NewItemCache(rdb *redis.Client) *ItemCache {
	return &ItemCache{rdb: rdb}
}

func itemKey(id uint) string {
	return fmt.Sprintf("item:%d", id)
}

// Get returns the cached item, or nil on a miss or any redis error. A nil
// cache always misses.
func (c *ItemCache) Get(ctx context.Context, id uint) *models.Item {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, itemKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var item models.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil
	}
	return &item
}

func (c *ItemCache) Set(ctx context.Context, item *models.Item) error {
	if c == nil || c.rdb == nil || item == nil {
		return nil
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, itemKey(item.ID), raw, itemTTL).Err()
}

func (c *ItemCache) Invalidate(ctx context.Context, id uint) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, itemKey(id)).Err()
}
