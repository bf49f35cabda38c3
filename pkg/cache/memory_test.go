package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheTypedGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", []int{1, 2, 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []int
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected value: %v", got)
	}

	// wrong destination type reads as a miss, never a panic
	var s string
	if err := mc.Get(ctx, "k", &s); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss for type mismatch, got %v", err)
	}

	if err := mc.Get(ctx, "absent", &got); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss for absent key, got %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "candles:BTCUSDT:15m", 1, time.Minute)
	_ = mc.Set(ctx, "candles:BTCUSDT:1h", 2, time.Minute)
	_ = mc.Set(ctx, "candles:ETHUSDT:15m", 3, time.Minute)

	if err := mc.DeleteByPattern(ctx, "candles:BTCUSDT:*"); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}

	var v int
	if err := mc.Get(ctx, "candles:BTCUSDT:15m", &v); err != ErrCacheMiss {
		t.Fatalf("expected BTCUSDT keys gone, got %v", err)
	}
	if err := mc.Get(ctx, "candles:ETHUSDT:15m", &v); err != nil {
		t.Fatalf("ETHUSDT key should survive: %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "scan.lock:BTCUSDT", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}

	ok, err = mc.TryLock(ctx, "scan.lock:BTCUSDT", time.Minute)
	if err != nil || ok {
		t.Fatalf("second lock should fail while held: ok=%v err=%v", ok, err)
	}

	if err := mc.Unlock(ctx, "scan.lock:BTCUSDT"); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	ok, err = mc.TryLock(ctx, "scan.lock:BTCUSDT", time.Minute)
	if err != nil || !ok {
		t.Fatalf("relock after unlock: ok=%v err=%v", ok, err)
	}
}

func TestGenerateKeyWithParams(t *testing.T) {
	key := GenerateKeyWithParams("candles:BTCUSDT", "15m", int64(1700000000))
	if key != "candles:BTCUSDT:15m:1700000000" {
		t.Fatalf("unexpected key: %s", key)
	}
	if got := BuildPattern("candles:BTCUSDT:"); got != "candles:BTCUSDT:*" {
		t.Fatalf("unexpected pattern: %s", got)
	}
}
