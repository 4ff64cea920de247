package cache

import (
	"testing"
	"time"
)

func TestCache_ExpiryAndPrefix(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(10 * time.Second).WithClock(func() time.Time { return now })

	c.Set("skills:list:v1:all", 1)
	c.Set("skills:list:v1:ids=a", 2)
	c.Set("other", 3)

	if v, ok := c.Get("skills:list:v1:all"); !ok || v.(int) != 1 {
		t.Fatalf("expected hit")
	}

	c.DeletePrefix("skills:")
	if c.Len() != 1 {
		t.Fatalf("prefix delete left %d keys", c.Len())
	}

	now = now.Add(10 * time.Second)
	if _, ok := c.Get("other"); ok {
		t.Fatalf("entry at exactly ttl must be expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read")
	}
}
