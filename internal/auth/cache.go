package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix   = "chess:token:"
	revokedKeyPrefix = "chess:revoked:"
	epochKey         = "chess:token-epoch"
)

// DefaultCacheTTL is how long a token → username entry lives.
const DefaultCacheTTL = 30 * time.Second

// revokedGrace is added to the entry TTL for revoke markers, so a marker
// outlives any lookup that read the row before it was deleted.
const revokedGrace = time.Minute

// fillScript writes an entry only if the token has no revoke marker and no
// flush happened since the caller read the epoch. Existing entries are kept.
//
//	KEYS: entry, revoke marker, epoch
//	ARGV: username, ttl ms, epoch seen by the caller
var fillScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
local current = redis.call("GET", KEYS[3])
if (current or "0") ~= ARGV[3] then
	return 0
end
if redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2], "NX") then
	return 1
end
return 0
`)

// RedisTokenCache remembers token → username lookups for a short TTL.
// The database stays the source of truth; a miss always falls through to it.
//
// Keys are the SHA-256 of the token so raw tokens never appear in Redis.
//
// Entries are only written through Fill, which refuses when the token was
// marked revoked or the cache was flushed after the caller read the row. A
// lookup racing a revoke or a wipe therefore cannot put a dead token back.
type RedisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("auth: pinging redis: %w", err)
	}
	return client, nil
}

// NewRedisTokenCache wraps an existing client. ttl <= 0 uses DefaultCacheTTL.
func NewRedisTokenCache(client *redis.Client, ttl time.Duration) *RedisTokenCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisTokenCache{client: client, ttl: ttl}
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func cacheKey(token string) string { return cacheKeyPrefix + tokenHash(token) }

func revokedKey(token string) string { return revokedKeyPrefix + tokenHash(token) }

// Get returns the cached username. ok is false on a miss.
func (c *RedisTokenCache) Get(ctx context.Context, token string) (username string, ok bool, err error) {
	username, err = c.client.Get(ctx, cacheKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("auth: reading token cache: %w", err)
	}
	return username, true, nil
}

// Epoch returns the flush counter. Read it before the store lookup and pass
// it to Fill.
func (c *RedisTokenCache) Epoch(ctx context.Context) (int64, error) {
	epoch, err := c.client.Get(ctx, epochKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("auth: reading token cache epoch: %w", err)
	}
	return epoch, nil
}

// Fill caches username for token unless the token is marked revoked, the
// epoch moved on, or an entry already exists. filled reports whether it wrote.
func (c *RedisTokenCache) Fill(ctx context.Context, token, username string, epoch int64) (filled bool, err error) {
	keys := []string{cacheKey(token), revokedKey(token), epochKey}
	n, err := fillScript.Run(ctx, c.client, keys, username, c.ttl.Milliseconds(), epoch).Int()
	if err != nil {
		return false, fmt.Errorf("auth: writing token cache: %w", err)
	}
	return n == 1, nil
}

// MarkRevoked drops the entry and blocks Fill for the token. Call it before
// deleting the token row.
func (c *RedisTokenCache) MarkRevoked(ctx context.Context, token string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, revokedKey(token), 1, c.ttl+revokedGrace)
		pipe.Del(ctx, cacheKey(token))
		return nil
	})
	if err != nil {
		return fmt.Errorf("auth: marking token revoked: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, cacheKey(token)).Err(); err != nil {
		return fmt.Errorf("auth: evicting token: %w", err)
	}
	return nil
}

// Flush evicts every cached token. Used after the store is wiped. The epoch
// is bumped first so lookups that read the store before the wipe cannot
// refill.
func (c *RedisTokenCache) Flush(ctx context.Context) error {
	if err := c.client.Incr(ctx, epochKey).Err(); err != nil {
		return fmt.Errorf("auth: bumping token cache epoch: %w", err)
	}

	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("auth: scanning token cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("auth: flushing token cache: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}
