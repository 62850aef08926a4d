package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	expires time.Time
}

// MemoryLimiter serializes all consumption through one mutex. It is only
// correct when a single instance serves the traffic; multi-instance
// deployments must use the redis limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[int]*window
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[int]*window),
		window:  Window,
		now:     time.Now,
	}
}

func (ml *MemoryLimiter) TryConsume(ctx context.Context, keyID int, quota int) Decision {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	w, ok := ml.windows[keyID]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(ml.window)}
		ml.windows[keyID] = w
	}
	w.count++

	return decide(w.count, quota)
}

func (ml *MemoryLimiter) Close() error {
	return nil
}
