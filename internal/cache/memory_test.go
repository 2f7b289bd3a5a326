package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"lancafe/internal/models"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	session := &models.Session{ID: 1, AccountID: 7, EndTime: time.Now().Add(time.Hour)}
	if err := m.Set(ctx, session); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := m.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected session 1, got %d", got.ID)
	}

	// The cache must hand back copies, not shared pointers.
	got.ID = 99
	again, err := m.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.ID != 1 {
		t.Fatalf("cache entry mutated through a returned pointer")
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()

	if _, err := m.Get(context.Background(), 7); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, &models.Session{ID: 1, AccountID: 7}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}

	// Deleting a missing entry is a no-op.
	if err := m.Delete(ctx, 7); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}
