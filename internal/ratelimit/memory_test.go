package ratelimit

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryLimiterBurstThenDeny(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemory(MemoryConfig{Now: clock.now})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d: expected allowed", i)
		}
	}
	d, _ := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
	if d.Allowed {
		t.Fatal("expected fourth request to be denied")
	}
	if d.Remaining != 0 || !d.ResetAt.After(clock.t) {
		t.Fatalf("unexpected decision %+v", d)
	}

	if d, _ := l.Allow(ctx, "5.6.7.8", 3, time.Minute); !d.Allowed {
		t.Fatal("other keys have their own bucket")
	}

	clock.t = clock.t.Add(21 * time.Second)
	if d, _ := l.Allow(ctx, "1.2.3.4", 3, time.Minute); !d.Allowed {
		t.Fatal("expected a token after one refill interval")
	}
}

func TestMemoryLimiterZeroLimitDisables(t *testing.T) {
	l := NewMemory(MemoryConfig{})
	for i := 0; i < 100; i++ {
		if d, _ := l.Allow(context.Background(), "k", 0, time.Second); !d.Allowed {
			t.Fatal("zero limit must not limit")
		}
	}
}

func TestMemoryLimiterCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemory(MemoryConfig{Now: clock.now, MaxKeys: 1})
	ctx := context.Background()
	if _, err := l.Allow(ctx, "a", 1, time.Second); err != nil {
		t.Fatalf("first key: %v", err)
	}
	if _, err := l.Allow(ctx, "b", 1, time.Second); err == nil {
		t.Fatal("expected capacity error while first bucket is active")
	}
	clock.t = clock.t.Add(2 * time.Second)
	if _, err := l.Allow(ctx, "b", 1, time.Second); err != nil {
		t.Fatalf("expected idle bucket to be collected: %v", err)
	}
}
