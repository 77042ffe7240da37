package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache is a best-effort JSON cache over Redis for hot directory reads
// (service catalog, mechanic profiles). A nil client disables it; every
// miss or Redis error just falls through to the database.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

func New(redisURL string, ttl time.Duration, log *logrus.Logger) *Cache {
	c := &Cache{ttl: ttl, log: log}
	if redisURL == "" {
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, cache disabled")
		return c
	}

	c.rdb = redis.NewClient(opt)
	return c
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", key).Debug("cache read failed")
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Debug("cache delete failed")
	}
}
