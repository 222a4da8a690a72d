// Package cache implements the Cache Client: a JSON-serialized
// result cache with deterministic, version-aware key derivation and
// graceful degradation on transport failure. Grounded on
// db/repository/redis.go's RedisRepository and on the Python original's
// redis_service.py key-derivation scheme.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultTTL and VersionsTTL are the per-operation cache-freshness defaults.
const (
	DefaultTTL  = 24 * time.Hour
	VersionsTTL = 1 * time.Hour
	CallTimeout = 2 * time.Second
)

// Client wraps a *redis.Client. A nil *Client is valid and behaves as an
// always-miss, no-op cache, so the engine tolerates a cache that is
// entirely absent without failing any request.
type Client struct {
	rdb *redis.Client
	log *logrus.Logger
}

// Config carries the connection parameters loaded from the environment.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect dials Redis. A connection failure is not fatal to the caller:
// Connect returns the error so main can log it, but every other method on
// a nil *Client degrades gracefully, so callers may choose to run with
// cache disabled rather than abort startup.
func Connect(ctx context.Context, cfg Config, log *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb, log: log}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// DeriveKey builds "app:<op>:v<version>:<hash>" where hash is a stable
// digest over the sorted (name,value) pairs of every non-nil arg, with the
// version folded into the digest input as well as the key itself — so two
// versions against identical args never collide.
func DeriveKey(op, version string, args map[string]any) string {
	names := make([]string, 0, len(args))
	for k, v := range args {
		if v == nil {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(op)
	sb.WriteByte('|')
	sb.WriteString(version)
	for _, k := range names {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		fmt.Fprintf(&sb, "%v", args[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	hash := hex.EncodeToString(sum[:])[:16]

	return fmt.Sprintf("app:%s:v%s:%s", op, version, hash)
}

// Get looks up key; a miss or a Redis error both report ok=false — a cache
// failure must never surface as a query failure.
func (c *Client) Get(ctx context.Context, key string, dest any) (ok bool) {
	if c == nil || c.rdb == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.WithError(err).Warn("cache get failed, treating as miss")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("cache value corrupt, treating as miss")
		}
		return false
	}
	return true
}

// Set writes value with ttl, degrading to a logged no-op on failure.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("cache value not serializable, skipping write")
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil && c.log != nil {
		c.log.WithError(err).Warn("cache set failed")
	}
}

// DeletePrefix drops every key matching a glob pattern (e.g. "app:*:v7.10.2:*")
// via SCAN+DEL, letting operators clear a single version's entries.
func (c *Client) DeletePrefix(ctx context.Context, pattern string) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			if c.log != nil {
				c.log.WithError(err).Warn("cache scan failed")
			}
			return deleted, nil
		}
		if len(keys) > 0 {
			pipe := c.rdb.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil && c.log != nil {
				c.log.WithError(err).Warn("cache pipelined delete failed")
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

// Keys lists up to limit keys matching pattern via SCAN, for the
// /cache/keys HTTP endpoint. Unlike DeletePrefix it never mutates state.
func (c *Client) Keys(ctx context.Context, pattern string, limit int64) ([]string, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	var (
		cursor uint64
		keys   []string
	)
	for int64(len(keys)) < limit {
		batch, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			if c.log != nil {
				c.log.WithError(err).Warn("cache scan failed")
			}
			return keys, nil
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if int64(len(keys)) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// Stats reports basic cache occupancy for the /cache/stats HTTP endpoint.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Keys    int64 `json:"keys,omitempty"`
}

// Stats returns the current key count, or Enabled:false if cache is absent.
func (c *Client) Stats(ctx context.Context) Stats {
	if c == nil || c.rdb == nil {
		return Stats{Enabled: false}
	}
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	n, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return Stats{Enabled: true}
	}
	return Stats{Enabled: true, Keys: n}
}
