package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow keeps the timestamps of recent actions per key in process
// memory. State is lost on restart and is not shared between instances.
type SlidingWindow struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	keys      map[string]*history
	lastSweep time.Time
}

type history struct {
	mu     sync.Mutex
	stamps []time.Time // chronological
	dead   bool        // removed from keys by a sweep
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Hour
	}

	return &SlidingWindow{
		limit:  limit,
		window: window,
		keys:   make(map[string]*history),
	}
}

func (w *SlidingWindow) CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	w.maybeSweep(now)

	for {
		h := w.entry(key)

		h.mu.Lock()
		if h.dead {
			// swept between lookup and lock; fetch the replacement
			h.mu.Unlock()
			continue
		}

		d := w.decide(h, now)
		h.mu.Unlock()
		return d, nil
	}
}

// decide must be called with h.mu held.
func (w *SlidingWindow) decide(h *history, now time.Time) Decision {
	h.stamps = prune(h.stamps, now, w.window)

	if len(h.stamps) >= w.limit {
		retry := h.stamps[0].Add(w.window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}
	}

	h.stamps = append(h.stamps, now)

	return Decision{Allowed: true, Remaining: w.limit - len(h.stamps)}
}

func (w *SlidingWindow) entry(key string) *history {
	w.mu.Lock()
	defer w.mu.Unlock()

	h, ok := w.keys[key]
	if !ok {
		h = &history{}
		w.keys[key] = h
	}
	return h
}

// Sweep drops keys whose every timestamp has expired.
func (w *SlidingWindow) Sweep(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastSweep = now

	for key, h := range w.keys {
		h.mu.Lock()
		h.stamps = prune(h.stamps, now, w.window)
		if len(h.stamps) == 0 {
			h.dead = true
			delete(w.keys, key)
		}
		h.mu.Unlock()
	}
}

func (w *SlidingWindow) maybeSweep(now time.Time) {
	w.mu.Lock()
	due := now.Sub(w.lastSweep) >= w.window
	w.mu.Unlock()

	if due {
		w.Sweep(now)
	}
}

// Len is the number of tracked keys.
func (w *SlidingWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys)
}

// prune keeps timestamps strictly younger than window. An entry aged exactly
// window is expired.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(stamps) && now.Sub(stamps[i]) >= window {
		i++
	}
	if i == 0 {
		return stamps
	}

	kept := make([]time.Time, len(stamps)-i)
	copy(kept, stamps[i:])
	return kept
}
