package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "dashboard:version"
	bumpChannel     = "dashboard.bump"
)

// Cache wraps Redis based caching with versioning controls. A nil
// receiver or client degrades to loader-only behaviour.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) disabled() bool {
	return c == nil || c.client == nil
}

// Version returns the current cache version, initialising when missing
// or corrupted.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c.disabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil), err == nil && ver <= 0:
		if setErr := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); setErr != nil {
			return 0, setErr
		}
		return 1, nil
	case err != nil:
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version so a bump
// implicitly abandons every older entry.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c.disabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader. The
// loader result always round-trips through JSON so cache hits and
// misses observe identical shapes.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if !c.disabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if !c.disabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the global version and
// publishing the new version for other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c.disabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications so
// every API instance converges on the highest version seen.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if c.disabled() {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	go c.consumeBumps(ctx, pubsub)
	return nil
}

func (c *Cache) consumeBumps(ctx context.Context, pubsub *redis.PubSub) {
	defer func() { _ = pubsub.Close() }()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ver, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil || ver <= 0 {
				// Unparseable payload still means stale data somewhere.
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
				continue
			}
			_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
		}
	}
}

func scopeToken(propertyIDs []int64) string {
	if len(propertyIDs) == 0 {
		return "-"
	}
	parts := make([]string, len(propertyIDs))
	for i, id := range propertyIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func keyOccupancy(propertyIDs []int64) string {
	return strings.Join([]string{"dashboard", "occupancy", scopeToken(propertyIDs)}, ":")
}

func keyMaintenance() string {
	return "dashboard:maintenance"
}

func keyDepreciation(propertyIDs []int64, asOf time.Time) string {
	return strings.Join([]string{"dashboard", "depreciation", scopeToken(propertyIDs), asOf.Format("2006-01-02")}, ":")
}
