package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisReceiptCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, NewRedisReceiptCache(rdb, ttl)
}

func TestRedisReceiptCache_FirstDeliveryThenRetry(t *testing.T) {
	t.Parallel()

	mr, c := newTestCache(t, 10*time.Second)
	defer mr.Close()

	ctx := context.Background()

	seen, err := c.SeenInbound(ctx, "SM123")
	if err != nil {
		t.Fatalf("SeenInbound() error: %v", err)
	}
	if seen {
		t.Fatalf("expected first delivery to be unseen")
	}

	if !mr.Exists("sms:inbound:SM123") {
		t.Fatalf("expected key to be recorded")
	}
	if ttl := mr.TTL("sms:inbound:SM123"); ttl <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttl)
	}

	seen, err = c.SeenInbound(ctx, "SM123")
	if err != nil {
		t.Fatalf("SeenInbound() retry error: %v", err)
	}
	if !seen {
		t.Fatalf("expected retry to be seen")
	}
}

func TestRedisReceiptCache_ExpiredEntryIsUnseenAgain(t *testing.T) {
	t.Parallel()

	mr, c := newTestCache(t, time.Second)
	defer mr.Close()

	ctx := context.Background()

	if _, err := c.SeenInbound(ctx, "SM9"); err != nil {
		t.Fatalf("SeenInbound() error: %v", err)
	}

	mr.FastForward(2 * time.Second)

	seen, err := c.SeenInbound(ctx, "SM9")
	if err != nil {
		t.Fatalf("SeenInbound() error: %v", err)
	}
	if seen {
		t.Fatalf("expected expired entry to be unseen again")
	}
}

func TestRedisReceiptCache_EmptyIDNeverSeen(t *testing.T) {
	t.Parallel()

	mr, c := newTestCache(t, time.Second)
	defer mr.Close()

	for i := 0; i < 2; i++ {
		seen, err := c.SeenInbound(context.Background(), "")
		if err != nil {
			t.Fatalf("SeenInbound() error: %v", err)
		}
		if seen {
			t.Fatalf("expected empty id to never be seen")
		}
	}
}

func TestNopReceiptCache(t *testing.T) {
	t.Parallel()

	var c NopReceiptCache
	for i := 0; i < 2; i++ {
		seen, err := c.SeenInbound(context.Background(), "SM1")
		if err != nil {
			t.Fatalf("SeenInbound() error: %v", err)
		}
		if seen {
			t.Fatalf("nop cache must never report seen")
		}
	}
}
