package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(WithMaxSize(10))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", map[string]int{"v": 42}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got map[string]int
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 42 {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got int
	if err := mc.Get(context.Background(), "absent", &got); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", 1, time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got int
	if err := mc.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheEvictLRU(t *testing.T) {
	mc := NewMemoryCache(WithMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(2 * time.Millisecond)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(2 * time.Millisecond)
	_ = mc.Set(ctx, "c", 3, time.Minute) // evicts a

	var got int
	if err := mc.Get(ctx, "a", &got); err != ErrCacheMiss {
		t.Fatalf("expected a evicted, got %v", err)
	}
	if err := mc.Get(ctx, "c", &got); err != nil {
		t.Fatalf("get c: %v", err)
	}
}
