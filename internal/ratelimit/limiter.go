// Package ratelimit decides whether an API key may spend one unit of its
// per-window quota right now, and spends it atomically if so.
//
// The counter uses increment-then-compare semantics: every attempt bumps the
// window counter, and the attempt is admitted when the post-increment count is
// still within quota. A denied attempt therefore leaves its increment behind
// (the raw counter may exceed the quota), but the number of admissions in a
// window never exceeds the quota.
package ratelimit

import (
	"context"
	"time"
)

// Window is the fixed quota window. The window starts at the first
// consumption for a key and the counter expires with it.
const Window = 60 * time.Second

type Decision struct {
	Allowed bool
	// Count is the counter value after this attempt. On a fail-open
	// decision the count is unknown and left at zero.
	Count int64
	// Remaining quota units in the current window, never negative.
	Remaining int64
	// RetryAfter is how long a denied caller should wait before the
	// window resets. Zero when allowed.
	RetryAfter time.Duration
	// FailedOpen marks an admission granted only because the counter
	// store was unreachable. It must stay distinguishable from a real
	// allow in logs and metrics.
	FailedOpen bool
}

// Limiter is the admission-control primitive shared by all gateway
// instances. quota is supplied per call from the key's configuration.
type Limiter interface {
	TryConsume(ctx context.Context, keyID int, quota int) Decision
}

func decide(count int64, quota int) Decision {
	remaining := int64(quota) - count
	if remaining < 0 {
		remaining = 0
	}
	if count > int64(quota) {
		return Decision{Allowed: false, Count: count, Remaining: remaining, RetryAfter: Window}
	}
	return Decision{Allowed: true, Count: count, Remaining: remaining}
}
