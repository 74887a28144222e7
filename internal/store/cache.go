package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/John-Robertt/dashpanel/internal/model"
)

const DefaultCacheTTL = 5 * time.Minute

// Cache keeps raw panel rows in Redis. Visibility is applied after the
// cache, so entries are shared between viewers.
type Cache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewCache(rdb redis.UniversalClient, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, prefix: "dashpanel:panel:"}
}

// NewCacheFromURL connects to the Redis server at rawURL
// (redis://[user:pass@]host:port/db).
func NewCacheFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewCache(rdb, ttl), nil
}

func (c *Cache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// GetMany returns the cached panels among ids. Undecodable entries are
// treated as misses.
func (c *Cache) GetMany(ctx context.Context, ids []int64) (map[int64]*model.Panel, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*model.Panel, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var row panelRow
		if err := json.Unmarshal([]byte(s), &row); err != nil {
			continue
		}
		p, err := row.panel()
		if err != nil {
			continue
		}
		out[p.ID] = p
	}
	return out, nil
}

func (c *Cache) SetMany(ctx context.Context, rows []panelRow) error {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range rows {
			b, err := json.Marshal(r)
			if err != nil {
				return err
			}
			pipe.Set(ctx, c.key(r.ID), b, c.ttl)
		}
		return nil
	})
	return err
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	err := c.rdb.Del(ctx, c.key(id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
