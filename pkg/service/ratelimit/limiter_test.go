package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)}
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	clock := newClock()
	limiter := NewLimiter(utility.NewMemoryCacheService(), Options{Limit: 10, Window: time.Minute}).WithClock(clock.Now)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		res, err := limiter.Limit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if res.Remaining != 10-i {
			t.Fatalf("request %d: remaining = %d, want %d", i, res.Remaining, 10-i)
		}
		clock.Advance(time.Second)
	}

	res, err := limiter.Limit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatalf("11th request inside the window must be rejected")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", res.Remaining)
	}

	// 最早的一次请求发生在 10:00:00，窗口在 10:01:00 重置
	wantReset := time.Date(2025, 10, 12, 10, 1, 0, 0, time.UTC)
	if !res.ResetAt.Equal(wantReset) {
		t.Fatalf("resetAt = %v, want %v", res.ResetAt, wantReset)
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	clock := newClock()
	limiter := NewLimiter(utility.NewMemoryCacheService(), Options{Limit: 2, Window: time.Minute}).WithClock(clock.Now)
	ctx := context.Background()

	_, _ = limiter.Limit(ctx, "ip")
	clock.Advance(30 * time.Second)
	_, _ = limiter.Limit(ctx, "ip")

	if res, _ := limiter.Limit(ctx, "ip"); res.Allowed {
		t.Fatalf("third request within window must be rejected")
	}

	// 第一条记录滑出窗口后，只腾出一个名额
	clock.Advance(31 * time.Second)
	if res, _ := limiter.Limit(ctx, "ip"); !res.Allowed {
		t.Fatalf("request after oldest entry expired should be allowed")
	}
	if res, _ := limiter.Limit(ctx, "ip"); res.Allowed {
		t.Fatalf("window still holds two entries, request must be rejected")
	}
}

func TestRejectedRequestsDoNotConsumeQuota(t *testing.T) {
	clock := newClock()
	limiter := NewLimiter(utility.NewMemoryCacheService(), Options{Limit: 1, Window: time.Minute}).WithClock(clock.Now)
	ctx := context.Background()

	_, _ = limiter.Limit(ctx, "ip")
	for i := 0; i < 5; i++ {
		_, _ = limiter.Limit(ctx, "ip")
	}

	clock.Advance(61 * time.Second)
	if res, _ := limiter.Limit(ctx, "ip"); !res.Allowed {
		t.Fatalf("rejected requests must not extend the window")
	}
}

func TestLimiterIsolatesIdentifiersAndPrefixes(t *testing.T) {
	clock := newClock()
	store := utility.NewMemoryCacheService()
	likes := NewLimiter(store, Options{Limit: 1, Window: time.Minute, Prefix: "rate:like"}).WithClock(clock.Now)
	other := NewLimiter(store, Options{Limit: 1, Window: time.Minute, Prefix: "rate:other"}).WithClock(clock.Now)
	ctx := context.Background()

	if res, _ := likes.Limit(ctx, "a"); !res.Allowed {
		t.Fatalf("first request for a should pass")
	}
	if res, _ := likes.Limit(ctx, "b"); !res.Allowed {
		t.Fatalf("different identifier must have its own window")
	}
	if res, _ := other.Limit(ctx, "a"); !res.Allowed {
		t.Fatalf("different prefix must have its own window")
	}
	if res, _ := likes.Limit(ctx, "a"); res.Allowed {
		t.Fatalf("second request for a under rate:like must be rejected")
	}
}

func TestLimiterConcurrentBurstAllowsExactlyLimit(t *testing.T) {
	for name, store := range map[string]utility.CacheService{
		"memory": utility.NewMemoryCacheService(),
		"redis":  newRedisStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for round := 0; round < 10; round++ {
				limiter := NewLimiter(store, Options{Limit: 10, Window: time.Minute, Prefix: fmt.Sprintf("burst:%d", round)})

				var (
					wg      sync.WaitGroup
					mu      sync.Mutex
					allowed int
				)
				start := make(chan struct{})
				for i := 0; i < 40; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						<-start
						res, err := limiter.Limit(ctx, "10.0.0.1")
						if err != nil {
							t.Errorf("unexpected error: %v", err)
							return
						}
						if res.Allowed {
							mu.Lock()
							allowed++
							mu.Unlock()
						}
					}()
				}
				close(start)
				wg.Wait()

				if allowed != 10 {
					t.Fatalf("round %d: allowed %d of 40 concurrent requests, want exactly 10", round, allowed)
				}
			}
		})
	}
}

func newRedisStore(t *testing.T) utility.CacheService {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return utility.NewCacheService(client)
}

func TestLimiterWithRedis(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	clock := newClock()
	limiter := NewLimiter(utility.NewCacheService(client), Options{Limit: 3, Window: time.Minute}).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if res, err := limiter.Limit(ctx, "1.2.3.4"); err != nil || !res.Allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, res.Allowed, err)
		}
	}
	if res, _ := limiter.Limit(ctx, "1.2.3.4"); res.Allowed {
		t.Fatalf("4th request must be rejected")
	}

	if ttl := server.TTL("rate:like:1.2.3.4"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window key ttl within (0, 1m], got %v", ttl)
	}

	server.Close()
	if _, err := limiter.Limit(ctx, "1.2.3.4"); !errors.Is(err, constant.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable when redis is down, got %v", err)
	}
}
