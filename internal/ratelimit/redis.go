package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = window_ms (int)
--
-- Returns {count, pttl_ms}. count is capped at limit+1.
local limit = tonumber(ARGV[1])
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end

local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  -- Key survived without a TTL; never let it block forever.
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end

if current > limit + 1 then
  redis.call('DECR', KEYS[1])
  current = limit + 1
end
return {current, ttl}
`)

// RedisLimiter is a fixed-window limiter shared by every process pointing at
// the same Redis. The script runs atomically, so increments never race.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	policy Policy
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient, p Policy, prefix string) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, fmt.Errorf("ratelimit: redis client is nil")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{rdb: rdb, policy: p, prefix: prefix}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.policy.Limit, l.policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrBackendUnavailable, res)
	}

	if res[0] > int64(l.policy.Limit) {
		return Decision{Allowed: false, RetryAfter: time.Duration(res[1]) * time.Millisecond}, nil
	}
	return Decision{Allowed: true}, nil
}
