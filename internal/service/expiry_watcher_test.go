package service

import (
	"context"
	"testing"
	"time"

	"lancafe/internal/models"
)

func TestExpiryWatcherSweepsOnTick(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.Advance(time.Hour)

	watcher := NewExpiryWatcher(f.engine, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if row := f.sessions.get(session.ID); row != nil && !row.IsActive {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("watcher did not expire the stale session")
}
