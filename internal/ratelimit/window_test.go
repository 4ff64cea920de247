package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestSlidingWindow_TenthAllowedEleventhRejected(t *testing.T) {
	w := NewSlidingWindow(10, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d, err := w.CheckAndRecord(ctx, "f1", t0.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	d, _ := w.CheckAndRecord(ctx, "f1", t0.Add(59*time.Minute))
	if d.Allowed {
		t.Fatalf("11th call within the window must be rejected")
	}
	if d.RetryAfter != time.Minute {
		t.Fatalf("retryAfter: got %v, want 1m", d.RetryAfter)
	}

	// other actors are unaffected
	d, _ = w.CheckAndRecord(ctx, "f2", t0.Add(59*time.Minute))
	if !d.Allowed {
		t.Fatalf("f2 must have its own window")
	}
}

func TestSlidingWindow_ExactBoundaryIsExpired(t *testing.T) {
	w := NewSlidingWindow(10, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if d, _ := w.CheckAndRecord(ctx, "f1", t0); !d.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	if d, _ := w.CheckAndRecord(ctx, "f1", t0.Add(time.Hour-time.Nanosecond)); d.Allowed {
		t.Fatalf("one ns before the boundary the window is still full")
	}

	d, _ := w.CheckAndRecord(ctx, "f1", t0.Add(time.Hour))
	if !d.Allowed {
		t.Fatalf("entries aged exactly one window must be pruned")
	}
	if d.Remaining != 9 {
		t.Fatalf("remaining: got %d, want 9", d.Remaining)
	}
}

func TestSlidingWindow_RejectionDoesNotRecord(t *testing.T) {
	w := NewSlidingWindow(2, time.Hour)
	ctx := context.Background()

	w.CheckAndRecord(ctx, "k", t0)
	w.CheckAndRecord(ctx, "k", t0.Add(30*time.Minute))

	for i := 0; i < 5; i++ {
		if d, _ := w.CheckAndRecord(ctx, "k", t0.Add(45*time.Minute)); d.Allowed {
			t.Fatalf("window is full")
		}
	}

	// only the first stamp has aged out; rejected calls left no trace
	if d, _ := w.CheckAndRecord(ctx, "k", t0.Add(time.Hour)); !d.Allowed {
		t.Fatalf("expected a free slot once the first stamp expired")
	}
}

func TestSlidingWindow_ConcurrentSameKey(t *testing.T) {
	w := NewSlidingWindow(10, time.Hour)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := w.CheckAndRecord(ctx, "f1", t0)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 10 {
		t.Fatalf("allowed: got %d, want 10", got)
	}
}

func TestSlidingWindow_SweepDropsIdleKeys(t *testing.T) {
	w := NewSlidingWindow(10, time.Hour)
	ctx := context.Background()

	w.CheckAndRecord(ctx, "a", t0)
	w.CheckAndRecord(ctx, "b", t0.Add(30*time.Minute))

	w.Sweep(t0.Add(time.Hour))
	if w.Len() != 1 {
		t.Fatalf("expected only b to remain, got %d keys", w.Len())
	}

	if d, _ := w.CheckAndRecord(ctx, "a", t0.Add(time.Hour)); !d.Allowed {
		t.Fatalf("swept key must start fresh")
	}
}

func TestSlidingWindow_CanceledContext(t *testing.T) {
	w := NewSlidingWindow(10, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.CheckAndRecord(ctx, "f1", t0); err == nil {
		t.Fatalf("expected context error")
	}
}
