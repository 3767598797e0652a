// Package cache provides versioned, trip-scoped caching of derived read
// views on Redis. A nil *TripCache is valid and simply calls the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "tripsplit:trip"

// TripCache caches JSON views per trip. Every key embeds the trip's
// current version, so bumping the version orphans all older entries.
type TripCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// New instantiates the cache helper.
func New(client *redis.Client, ttl time.Duration) *TripCache {
	return &TripCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return client, nil
}

func (c *TripCache) enabled() bool {
	return c != nil && c.client != nil
}

func versionKey(tripID int64) string {
	return fmt.Sprintf("%s:%d:version", keyPrefix, tripID)
}

func viewPrefix(tripID int64) string {
	return fmt.Sprintf("%s:%d:view:", keyPrefix, tripID)
}

// Version returns the trip's cache version, initialising it when missing.
func (c *TripCache) Version(ctx context.Context, tripID int64) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(tripID)).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent Invalidate from being overwritten.
		if err := c.client.SetNX(ctx, versionKey(tripID), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(tripID)).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a view key for the trip at its current version.
func (c *TripCache) BuildKey(ctx context.Context, tripID int64, parts ...string) (string, error) {
	ver, err := c.Version(ctx, tripID)
	if err != nil {
		return "", err
	}
	return viewPrefix(tripID) + strings.Join(parts, ":") + ":v" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
// Concurrent misses for the same key share one loader call.
func (c *TripCache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if !c.enabled() {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Invalidate bumps the trip's version and drops views built for older
// versions. Only the version bump is required for correctness.
func (c *TripCache) Invalidate(ctx context.Context, tripID int64) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(tripID)).Err(); err != nil {
		return fmt.Errorf("cache: bump trip %d: %w", tripID, err)
	}
	return c.DeletePattern(ctx, viewPrefix(tripID)+"*")
}

// DeletePattern removes every key matching pattern using SCAN.
func (c *TripCache) DeletePattern(ctx context.Context, pattern string) error {
	if !c.enabled() {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache: scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: delete %q: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func roundTrip(value, dest interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
