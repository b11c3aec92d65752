package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, c := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "absent"); err != nil || hit {
		t.Errorf("Get(absent) = hit %v, err %v, want miss", hit, err)
	}

	if err := c.Set(ctx, "bundle", []byte("zip bytes"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "bundle")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v, want hit", hit, err)
	}
	if string(data) != "zip bytes" {
		t.Errorf("Get = %q, want %q", data, "zip bytes")
	}

	if err := c.Delete(ctx, "bundle"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "bundle"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	if err := c.Set(ctx, "ttl", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "ttl"); !hit {
		t.Fatal("entry should hit before expiry")
	}

	mr.FastForward(2 * time.Second)
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("entry should miss after expiry")
	}
}

func TestNewRedisCacheUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(context.Background(), addr, "", 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewRedisCache(dead addr) error = %v, want ErrUnavailable", err)
	}
}

func TestNewRedisCacheConnects(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	c, err := NewRedisCache(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Errorf("Set error: %v", err)
	}
}
