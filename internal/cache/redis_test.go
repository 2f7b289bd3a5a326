package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lancafe/internal/models"
)

func newRedisCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour), mr
}

func TestRedisRoundTrip(t *testing.T) {
	r, _ := newRedisCache(t)
	ctx := context.Background()

	end := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	if err := r.Set(ctx, &models.Session{ID: 1, AccountID: 7, EndTime: end}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := r.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != 1 || got.AccountID != 7 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.EndTime.Equal(end) {
		t.Fatalf("end time lost in round trip: %v", got.EndTime)
	}
}

func TestRedisMiss(t *testing.T) {
	r, _ := newRedisCache(t)

	if _, err := r.Get(context.Background(), 7); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestRedisDelete(t *testing.T) {
	r, _ := newRedisCache(t)
	ctx := context.Background()

	if err := r.Set(ctx, &models.Session{ID: 1, AccountID: 7}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := r.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestRedisEntryExpires(t *testing.T) {
	r, mr := newRedisCache(t)
	ctx := context.Background()

	if err := r.Set(ctx, &models.Session{ID: 1, AccountID: 7}); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := r.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after ttl, got %v", err)
	}
}
