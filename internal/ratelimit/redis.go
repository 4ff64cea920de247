package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Prune, count and conditional add run as one script so concurrent callers
// for the same key cannot both observe limit-1.
//
// KEYS[1] = sorted set of action timestamps (ms)
// ARGV    = now_ms, window_ms, limit, member
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisSlidingWindow is the multi-instance variant of SlidingWindow.
type RedisSlidingWindow struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

type RedisOption func(*RedisSlidingWindow)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisSlidingWindow) { r.prefix = strings.Trim(prefix, ":") }
}

func NewRedisSlidingWindow(rdb redis.Scripter, limit int, window time.Duration, opts ...RedisOption) *RedisSlidingWindow {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Hour
	}

	r := &RedisSlidingWindow{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit:apply",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisSlidingWindow) CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error) {
	nowMS := now.UnixMilli()
	windowMS := r.window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, r.rdb,
		[]string{r.prefix + ":" + key},
		nowMS, windowMS, r.limit, fmt.Sprintf("%d-%s", nowMS, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: r.limit - int(res[1])}, nil
	}

	retry := time.Duration(res[2]+windowMS-nowMS) * time.Millisecond
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
