// Package ratelimit bounds how often an actor may perform an action within a
// trailing window.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed bool
	// Remaining is how many more actions fit in the window after this one.
	Remaining int
	// RetryAfter is set on rejection: when the oldest recorded action ages out.
	RetryAfter time.Duration
}

// Limiter prunes, checks and records atomically per key. A rejected call
// records nothing.
type Limiter interface {
	CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error)
}
