package kvstore

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// casScript performs the version-checked write atomically. KEYS[1] is the
// value key, KEYS[2] the sibling version key. ARGV[1] is the new value,
// ARGV[2] the expected version (-1 skips the check). Returns the new
// version, or -1 on conflict.
const casScript = `
local cur = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) >= 0 and cur ~= tonumber(ARGV[2]) then
  return -1
end
redis.call('SET', KEYS[1], ARGV[1])
return redis.call('INCR', KEYS[2])
`

// Redis is a Store backed by a shared Redis instance, letting several
// dashboard processes see the same state.
type Redis struct {
	client goredis.Cmdable
}

// NewRedis wraps an existing Redis client.
func NewRedis(client goredis.Cmdable) *Redis {
	return &Redis{client: client}
}

func versionKey(key string) string {
	return key + ":ver"
}

// Get returns the entry stored under key, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (Entry, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		observe("redis", "get", ErrNotFound)
		return Entry{}, ErrNotFound
	}
	if err != nil {
		observe("redis", "get", err)
		return Entry{}, fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}

	version, err := r.client.Get(ctx, versionKey(key)).Int64()
	if err != nil && err != goredis.Nil {
		observe("redis", "get", err)
		return Entry{}, fmt.Errorf("kvstore: redis get version %q: %w", key, err)
	}

	observe("redis", "get", nil)
	return Entry{Value: []byte(value), Version: version}, nil
}

// Put writes value under key, enforcing the version check when version >= 0.
func (r *Redis) Put(ctx context.Context, key string, value []byte, version int64) (int64, error) {
	result, err := r.client.Eval(ctx, casScript, []string{key, versionKey(key)}, string(value), version).Int64()
	if err != nil {
		observe("redis", "put", err)
		return 0, fmt.Errorf("kvstore: redis put %q: %w", key, err)
	}
	if result < 0 {
		observe("redis", "put", ErrVersionConflict)
		return 0, ErrVersionConflict
	}

	observe("redis", "put", nil)
	return result, nil
}

// Delete removes key and its version stamp.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key, versionKey(key)).Err(); err != nil {
		observe("redis", "delete", err)
		return fmt.Errorf("kvstore: redis delete %q: %w", key, err)
	}
	observe("redis", "delete", nil)
	return nil
}
