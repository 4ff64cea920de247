package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return rdb
}

func TestRedisSlidingWindow_LimitAndBoundary(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	prefix := "test:" + uuid.NewString()
	w := NewRedisSlidingWindow(rdb, 10, time.Hour, WithKeyPrefix(prefix))

	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 10; i++ {
		d, err := w.CheckAndRecord(ctx, "f1", now)
		if err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	d, err := w.CheckAndRecord(ctx, "f1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("11th: %v", err)
	}
	if d.Allowed {
		t.Fatalf("11th call must be rejected")
	}
	if d.RetryAfter != 59*time.Minute {
		t.Fatalf("retryAfter: got %v, want 59m", d.RetryAfter)
	}

	d, err = w.CheckAndRecord(ctx, "f1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("boundary: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("entries aged exactly one window must be pruned")
	}
}
