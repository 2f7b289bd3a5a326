package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lancafe/internal/models"
)

// Redis is an ActiveSessions backend shared between processes, for deployments
// where the kiosk fleet and the admin panel talk to separate service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a redis-backed cache with the given entry TTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) key(accountID int64) string {
	return fmt.Sprintf("sessions:active:%d", accountID)
}

// Get returns the cached session for the account, or ErrMiss.
func (r *Redis) Get(ctx context.Context, accountID int64) (*models.Session, error) {
	result, err := r.client.Get(ctx, r.key(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Set stores the session keyed by its account id.
func (r *Redis) Set(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(session.AccountID), data, r.ttl).Err()
}

// Delete removes the account's entry, if any.
func (r *Redis) Delete(ctx context.Context, accountID int64) error {
	return r.client.Del(ctx, r.key(accountID)).Err()
}
