// Package throttle caps in-flight requests per caller.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter hands out concurrency slots. release must be called exactly once
// for every acquired slot. A failed release leaves the slot taken until the
// counter's TTL expires.
type Limiter interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, ok bool, err error)
}

var acquireScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = ttl_ms (int)
--
-- Returns 1 if acquired, 0 if the limit is reached.
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
elseif redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end

if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var releaseScript = redis.NewScript(`
-- KEYS[1] = counter key
local current = redis.call('DECR', KEYS[1])
if current <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// RedisLimiter keeps one counter per key. The TTL bounds how long a slot
// leaked by a crashed process stays taken.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int
	ttl    time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.Scripter, limit int, ttl time.Duration) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, errors.New("throttle: redis client is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("throttle: limit must be > 0, got %d", limit)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("throttle: ttl must be > 0, got %s", ttl)
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl, prefix: "edge:inflight:"}, nil
}

func (l *RedisLimiter) Acquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	if key == "" {
		return nil, false, errors.New("throttle: key is required")
	}
	k := l.prefix + key
	res, err := acquireScript.Run(ctx, l.rdb, []string{k}, l.limit, l.ttl.Milliseconds()).Int()
	if err != nil {
		return nil, false, err
	}
	if res != 1 {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{k}).Err()
	}
	return release, true, nil
}
