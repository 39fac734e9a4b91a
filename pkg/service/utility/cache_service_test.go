package utility

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
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

	return client, server
}

// 两种实现必须表现一致
func stores(t *testing.T) map[string]CacheService {
	t.Helper()
	client, _ := newTestRedis(t)
	return map[string]CacheService{
		"memory": NewMemoryCacheService(),
		"redis":  NewCacheService(client),
	}
}

func TestCounterPrimitives(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if v, err := svc.Get(ctx, "missing"); err != nil || v != "" {
				t.Fatalf("Get(missing) = %q, %v; want empty, nil", v, err)
			}

			if v, _ := svc.Increment(ctx, "c"); v != 1 {
				t.Fatalf("first Increment = %d, want 1", v)
			}
			if v, _ := svc.Increment(ctx, "c"); v != 2 {
				t.Fatalf("second Increment = %d, want 2", v)
			}
			if v, _ := svc.Decrement(ctx, "c"); v != 1 {
				t.Fatalf("Decrement = %d, want 1", v)
			}
			if v, _ := svc.Decrement(ctx, "fresh"); v != -1 {
				t.Fatalf("Decrement on missing key = %d, want -1", v)
			}

			if err := svc.Set(ctx, "c", 0, 0); err != nil {
				t.Fatalf("Set returned error: %v", err)
			}
			if v, _ := svc.Get(ctx, "c"); v != "0" {
				t.Fatalf("Get after Set = %q, want \"0\"", v)
			}
		})
	}
}

func TestSetPrimitivesReportChanges(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if n, _ := svc.SAdd(ctx, "s", "v1"); n != 1 {
				t.Fatalf("SAdd new member = %d, want 1", n)
			}
			if n, _ := svc.SAdd(ctx, "s", "v1"); n != 0 {
				t.Fatalf("SAdd duplicate = %d, want 0", n)
			}
			if ok, _ := svc.SIsMember(ctx, "s", "v1"); !ok {
				t.Fatalf("expected v1 to be a member")
			}
			if n, _ := svc.SCard(ctx, "s"); n != 1 {
				t.Fatalf("SCard = %d, want 1", n)
			}
			if n, _ := svc.SRem(ctx, "s", "v2"); n != 0 {
				t.Fatalf("SRem non-member = %d, want 0", n)
			}
			if n, _ := svc.SRem(ctx, "s", "v1"); n != 1 {
				t.Fatalf("SRem member = %d, want 1", n)
			}
			if ok, _ := svc.SIsMember(ctx, "s", "v1"); ok {
				t.Fatalf("expected v1 to be removed")
			}
			if n, _ := svc.SRem(ctx, "nothing", "v1"); n != 0 {
				t.Fatalf("SRem on missing key = %d, want 0", n)
			}
		})
	}
}

func TestHashPrimitives(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if v, err := svc.HGet(ctx, "h", "f"); err != nil || v != "" {
				t.Fatalf("HGet missing = %q, %v", v, err)
			}
			if err := svc.HSet(ctx, "h", "f", "one"); err != nil {
				t.Fatalf("HSet returned error: %v", err)
			}
			if err := svc.HSet(ctx, "h", "f", "two"); err != nil {
				t.Fatalf("HSet returned error: %v", err)
			}
			if v, _ := svc.HGet(ctx, "h", "f"); v != "two" {
				t.Fatalf("HGet = %q, want two (last write wins)", v)
			}
		})
	}
}

func TestSlidingWindowPrimitive(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			w := SlidingWindow{NowMs: 1_000_000, WindowMs: 60_000, Limit: 2}

			w.Member = "a"
			res, err := svc.SlidingWindow(ctx, "z", w)
			if err != nil {
				t.Fatalf("SlidingWindow returned error: %v", err)
			}
			if !res.Allowed || res.Count != 1 || !res.HasOldest || res.OldestMs != 1_000_000 {
				t.Fatalf("first call = %+v", res)
			}

			w.NowMs += 10_000
			w.Member = "b"
			if res, _ = svc.SlidingWindow(ctx, "z", w); !res.Allowed || res.Count != 2 {
				t.Fatalf("second call = %+v", res)
			}

			w.NowMs += 10_000
			w.Member = "c"
			res, _ = svc.SlidingWindow(ctx, "z", w)
			if res.Allowed || res.Count != 2 || res.OldestMs != 1_000_000 {
				t.Fatalf("over limit call = %+v, want rejected with oldest kept", res)
			}

			// 边界：分数等于窗口起点的记录已滑出
			w.NowMs = 1_060_000
			w.Member = "d"
			res, _ = svc.SlidingWindow(ctx, "z", w)
			if !res.Allowed || res.Count != 2 || res.OldestMs != 1_010_000 {
				t.Fatalf("after slide = %+v", res)
			}
		})
	}
}

func TestSlidingWindowConcurrentBurst(t *testing.T) {
	for name, svc := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const limit = 10

			for round := 0; round < 5; round++ {
				key := fmt.Sprintf("burst:%d", round)
				var (
					wg      sync.WaitGroup
					mu      sync.Mutex
					allowed int
				)
				start := make(chan struct{})
				for i := 0; i < 40; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						<-start
						res, err := svc.SlidingWindow(ctx, key, SlidingWindow{
							NowMs:    1_000_000,
							WindowMs: 60_000,
							Limit:    limit,
							Member:   fmt.Sprintf("m-%d", i),
						})
						if err != nil {
							t.Errorf("SlidingWindow returned error: %v", err)
							return
						}
						if res.Allowed {
							mu.Lock()
							allowed++
							mu.Unlock()
						}
					}(i)
				}
				close(start)
				wg.Wait()

				if allowed != limit {
					t.Fatalf("round %d: allowed %d of 40, want exactly %d", round, allowed, limit)
				}
			}
		})
	}
}

func TestSlidingWindowSetsTTL(t *testing.T) {
	client, server := newTestRedis(t)
	svc := NewCacheService(client)

	_, err := svc.SlidingWindow(context.Background(), "rate:ip", SlidingWindow{NowMs: 1, WindowMs: 60_000, Limit: 1, Member: "m"})
	if err != nil {
		t.Fatalf("SlidingWindow returned error: %v", err)
	}
	if ttl := server.TTL("rate:ip"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, want within (0, 1m]", ttl)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newMemoryCacheService(func() time.Time { return now })
	ctx := context.Background()

	_ = svc.Set(ctx, "k", "v", time.Minute)
	_, _ = svc.SAdd(ctx, "s", "m")
	_ = svc.Expire(ctx, "s", 30*time.Second)

	now = now.Add(45 * time.Second)
	if n, _ := svc.SCard(ctx, "s"); n != 0 {
		t.Fatalf("expected expired set to be empty, got %d", n)
	}
	if v, _ := svc.Get(ctx, "k"); v != "v" {
		t.Fatalf("expected k to survive, got %q", v)
	}

	now = now.Add(time.Minute)
	if purged := svc.PurgeExpired(); purged != 1 {
		t.Fatalf("PurgeExpired = %d, want 1", purged)
	}
	if v, _ := svc.Get(ctx, "k"); v != "" {
		t.Fatalf("expected k to be expired, got %q", v)
	}
}

func TestMemoryStoreWrongType(t *testing.T) {
	svc := NewMemoryCacheService()
	ctx := context.Background()

	_, _ = svc.SAdd(ctx, "k", "m")
	if _, err := svc.Increment(ctx, "k"); err == nil {
		t.Fatalf("expected WRONGTYPE error when incrementing a set")
	}
}

func TestMemoryStoreConcurrentSAdd(t *testing.T) {
	svc := NewMemoryCacheService()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var added int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _ := svc.SAdd(ctx, "s", "same")
			mu.Lock()
			added += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Fatalf("concurrent SAdd reported %d additions, want exactly 1", added)
	}
}

func TestFallbackSelection(t *testing.T) {
	if got := GetCacheServiceType(NewCacheServiceWithFallback(nil, nil)); got != CacheTypeMemory {
		t.Fatalf("nil client should fall back to memory, got %s", got)
	}

	client, _ := newTestRedis(t)
	if got := GetCacheServiceType(NewCacheServiceWithFallback(client, nil)); got != CacheTypeRedis {
		t.Fatalf("reachable redis should be used, got %s", got)
	}
}
