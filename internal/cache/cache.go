// Package cache indexes the currently active session per account so the
// engine can answer "is there a session in progress" without a store read.
// The cache is advisory: every engine operation re-validates preconditions
// against the store, so a stale or unavailable cache degrades freshness only.
package cache

import (
	"context"
	"errors"

	"lancafe/internal/models"
)

// ErrMiss is returned when no entry exists for the account.
var ErrMiss = errors.New("cache: miss")

// ActiveSessions caches at most one session per account id.
type ActiveSessions interface {
	Get(ctx context.Context, accountID int64) (*models.Session, error)
	Set(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, accountID int64) error
}
