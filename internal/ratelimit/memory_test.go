package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLimiter() (*MemoryLimiter, *time.Time) {
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ml := NewMemoryLimiter()
	ml.now = func() time.Time { return current }
	return ml, &current
}

func TestMemoryLimiter_QuotaExhaustion(t *testing.T) {
	ml, _ := newTestLimiter()
	ctx := context.Background()
	quota := 5

	for i := 0; i < quota; i++ {
		d := ml.TryConsume(ctx, 1, quota)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	d := ml.TryConsume(ctx, 1, quota)
	if d.Allowed {
		t.Fatal("request beyond quota should be denied")
	}
	if d.RetryAfter != Window {
		t.Errorf("expected retry after %v, got %v", Window, d.RetryAfter)
	}
	if d.Remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", d.Remaining)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	ml, current := newTestLimiter()
	ctx := context.Background()
	quota := 3

	for i := 0; i < quota; i++ {
		ml.TryConsume(ctx, 1, quota)
	}
	if d := ml.TryConsume(ctx, 1, quota); d.Allowed {
		t.Fatal("expected denial before window reset")
	}

	*current = current.Add(Window)

	for i := 0; i < quota; i++ {
		d := ml.TryConsume(ctx, 1, quota)
		if !d.Allowed {
			t.Fatalf("request %d after window reset should be allowed", i+1)
		}
	}
	if d := ml.TryConsume(ctx, 1, quota); d.Allowed {
		t.Fatal("expected denial after fresh window exhausted")
	}
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	ml, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ml.TryConsume(ctx, 1, 3)
	}
	if d := ml.TryConsume(ctx, 1, 3); d.Allowed {
		t.Fatal("key 1 should be exhausted")
	}
	if d := ml.TryConsume(ctx, 2, 3); !d.Allowed {
		t.Fatal("key 2 should be unaffected by key 1's quota")
	}
}

func TestMemoryLimiter_ConcurrentExactAdmissions(t *testing.T) {
	ml := NewMemoryLimiter()
	ctx := context.Background()
	quota := 5
	requests := 15

	var allowed, denied atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ml.TryConsume(ctx, 42, quota).Allowed {
				allowed.Add(1)
			} else {
				denied.Add(1)
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != int64(quota) {
		t.Errorf("expected exactly %d admissions, got %d", quota, allowed.Load())
	}
	if denied.Load() != int64(requests-quota) {
		t.Errorf("expected exactly %d denials, got %d", requests-quota, denied.Load())
	}
}

func TestDecide_CountsAndRemaining(t *testing.T) {
	tests := []struct {
		name      string
		count     int64
		quota     int
		allowed   bool
		remaining int64
	}{
		{"first of many", 1, 10, true, 9},
		{"exactly at quota", 10, 10, true, 0},
		{"one over quota", 11, 10, false, 0},
		{"far over quota", 25, 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decide(tt.count, tt.quota)
			if d.Allowed != tt.allowed {
				t.Errorf("expected allowed=%v, got %v", tt.allowed, d.Allowed)
			}
			if d.Remaining != tt.remaining {
				t.Errorf("expected remaining=%d, got %d", tt.remaining, d.Remaining)
			}
		})
	}
}
