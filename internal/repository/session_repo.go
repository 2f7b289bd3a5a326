package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lancafe/internal/models"
)

// SessionRepository handles persistence of workstation sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, account_id, workstation_id, start_time, end_time, duration_minutes, credits_used, is_active, created_at, updated_at"

func scanSession(row *sql.Row) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.WorkstationID,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.CreditsUsed,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new active session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	const query = `
		INSERT INTO sessions (account_id, workstation_id, start_time, end_time, duration_minutes, credits_used, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		session.AccountID,
		session.WorkstationID,
		session.StartTime,
		session.EndTime,
		session.DurationMinutes,
		session.CreditsUsed,
		session.IsActive,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

// Delete removes a session row. Used only to compensate a failed debit during
// session start; sessions are never deleted in normal operation.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetByID fetches a session by id.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

// GetActiveByAccount returns the most recent active session for the account.
func (r *SessionRepository) GetActiveByAccount(ctx context.Context, accountID int64) (*models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanSession(r.db.QueryRowContext(ctx, query, accountID))
}

// SetTiming rewrites the timing and accounting fields of a session. Extensions
// use it to push the end time forward, and the compensating rollback uses it to
// restore the pre-extension values.
func (r *SessionRepository) SetTiming(ctx context.Context, id int64, endTime time.Time, durationMinutes int, creditsUsed int64, active bool) (*models.Session, error) {
	const query = `
		UPDATE sessions
		SET end_time = $2,
		    duration_minutes = $3,
		    credits_used = $4,
		    is_active = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRowContext(ctx, query, id, endTime, durationMinutes, creditsUsed, active))
}

// Close marks a session inactive with the given closing time.
func (r *SessionRepository) Close(ctx context.Context, id int64, endTime time.Time) error {
	const query = `
		UPDATE sessions
		SET is_active = FALSE,
		    end_time = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, endTime)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// MarkInactive flips the active flag without touching the stored end time.
// Used when a single lookup finds a session whose end time has already passed.
func (r *SessionRepository) MarkInactive(ctx context.Context, id int64) error {
	const query = `
		UPDATE sessions
		SET is_active = FALSE,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ExpireStale flips every active session whose end time has passed to inactive
// in one batch. Idempotent; returns the number of sessions reclassified.
func (r *SessionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE sessions
		SET is_active = FALSE,
		    end_time = $1,
		    updated_at = NOW()
		WHERE is_active = TRUE AND end_time < $1
	`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListActive returns currently active sessions, newest first.
func (r *SessionRepository) ListActive(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE is_active = TRUE
		ORDER BY start_time DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID,
			&s.AccountID,
			&s.WorkstationID,
			&s.StartTime,
			&s.EndTime,
			&s.DurationMinutes,
			&s.CreditsUsed,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreditsUsedSince sums the credits charged on sessions started at or after the
// given time, for dashboard revenue stats.
func (r *SessionRepository) CreditsUsedSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(credits_used), 0)
		FROM sessions
		WHERE start_time >= $1
	`
	var total int64
	err := r.db.QueryRowContext(ctx, query, since).Scan(&total)
	return total, err
}
