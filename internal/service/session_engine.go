package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lancafe/internal/cache"
	"lancafe/internal/metrics"
	"lancafe/internal/models"
	"lancafe/internal/repository"
)

// Default timing constants, overridable via SessionEngineParams.
const (
	defaultGraceWindow = 5 * time.Minute
	defaultStartBuffer = 10 * time.Second
)

// AccountStore defines the balance operations the engine needs. Debit and
// Credit must be atomic conditional updates; Debit returns
// repository.ErrInsufficientCredits when the balance cannot cover the amount.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Debit(ctx context.Context, id, amount int64) (*models.Account, error)
	Credit(ctx context.Context, id, amount int64) (*models.Account, error)
	Totals(ctx context.Context) (count, credits int64, err error)
}

// SessionStore defines session row persistence.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	GetActiveByAccount(ctx context.Context, accountID int64) (*models.Session, error)
	SetTiming(ctx context.Context, id int64, endTime time.Time, durationMinutes int, creditsUsed int64, active bool) (*models.Session, error)
	Close(ctx context.Context, id int64, endTime time.Time) error
	MarkInactive(ctx context.Context, id int64) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	ListActive(ctx context.Context, limit int) ([]models.Session, error)
	CreditsUsedSince(ctx context.Context, since time.Time) (int64, error)
}

// LedgerStore appends to the transaction log.
type LedgerStore interface {
	Append(ctx context.Context, tx *models.Transaction) error
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error)
}

// WorkstationStore records terminal occupancy as a session side effect.
type WorkstationStore interface {
	SetStatus(ctx context.Context, id string, accountID *int64, status string) error
}

// SessionEngine is the state machine for paid workstation sessions. It is the
// sole writer of session rows and session-related ledger entries, and the only
// component allowed to debit account balances.
type SessionEngine struct {
	accounts     AccountStore
	sessions     SessionStore
	ledger       LedgerStore
	workstations WorkstationStore
	cache        cache.ActiveSessions
	notifier     Notifier
	clock        Clock
	graceWindow  time.Duration
	startBuffer  time.Duration
	logger       *zap.Logger
}

// SessionEngineParams collects engine dependencies. Cache and Notifier are
// optional; Clock, GraceWindow, StartBuffer and Logger default when zero.
type SessionEngineParams struct {
	Accounts     AccountStore
	Sessions     SessionStore
	Ledger       LedgerStore
	Workstations WorkstationStore
	Cache        cache.ActiveSessions
	Notifier     Notifier
	Clock        Clock
	GraceWindow  time.Duration
	StartBuffer  time.Duration
	Logger       *zap.Logger
}

// NewSessionEngine builds the engine.
func NewSessionEngine(p SessionEngineParams) *SessionEngine {
	if p.Clock == nil {
		p.Clock = RealClock{}
	}
	if p.GraceWindow <= 0 {
		p.GraceWindow = defaultGraceWindow
	}
	if p.StartBuffer < 0 {
		p.StartBuffer = defaultStartBuffer
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &SessionEngine{
		accounts:     p.Accounts,
		sessions:     p.Sessions,
		ledger:       p.Ledger,
		workstations: p.Workstations,
		cache:        p.Cache,
		notifier:     p.Notifier,
		clock:        p.Clock,
		graceWindow:  p.GraceWindow,
		startBuffer:  p.StartBuffer,
		logger:       p.Logger,
	}
}

// StartSession creates an active session and charges the account for it.
// Write order: session row, then balance debit, then ledger append. A failed
// debit rolls the session row back; a failed ledger append does not fail the
// operation (balance and session are already consistent).
func (e *SessionEngine) StartSession(ctx context.Context, accountID int64, durationMinutes int, credits int64, workstationID string) (*models.Session, *models.Account, error) {
	now := e.clock.Now().UTC()

	if cached := e.cachedSession(ctx, accountID); cached != nil && cached.EndTime.After(now) {
		return nil, nil, ErrAlreadyActive
	}

	existing, err := e.sessions.GetActiveByAccount(ctx, accountID)
	switch {
	case err == nil:
		if existing.EndTime.After(now) {
			return nil, nil, ErrAlreadyActive
		}
		// Stale active row the sweep has not reached yet.
		if markErr := e.sessions.MarkInactive(ctx, existing.ID); markErr != nil {
			return nil, nil, fmt.Errorf("%w: expire stale session: %v", ErrStoreWrite, markErr)
		}
		e.cacheDelete(ctx, accountID)
	case errors.Is(err, repository.ErrSessionNotFound):
	default:
		return nil, nil, fmt.Errorf("%w: lookup active session: %v", ErrStoreWrite, err)
	}

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: lookup account: %v", ErrStoreWrite, err)
	}
	if account.Credits < credits {
		return nil, nil, repository.ErrInsufficientCredits
	}

	// The buffer absorbs clock and network skew between kiosk and server; it
	// is not billed and not part of duration_minutes.
	session := &models.Session{
		AccountID:       accountID,
		WorkstationID:   workstationID,
		StartTime:       now,
		EndTime:         now.Add(time.Duration(durationMinutes)*time.Minute + e.startBuffer),
		DurationMinutes: durationMinutes,
		CreditsUsed:     credits,
		IsActive:        true,
	}
	if err := e.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("%w: create session: %v", ErrStoreWrite, err)
	}

	updated, err := e.accounts.Debit(ctx, accountID, credits)
	if err != nil {
		// The account must never reflect a session that was not paid for.
		if delErr := e.sessions.Delete(ctx, session.ID); delErr != nil {
			e.logger.Error("session rollback failed after debit failure",
				zap.Int64("session_id", session.ID),
				zap.Int64("account_id", accountID),
				zap.NamedError("debit_error", err),
				zap.NamedError("rollback_error", delErr),
			)
			return nil, nil, fmt.Errorf("%w: debit failed and rollback failed, state may be inconsistent: %v", ErrStoreWrite, err)
		}
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: debit account: %v", ErrStoreWrite, err)
	}

	e.appendLedger(ctx, &models.Transaction{
		AccountID:   accountID,
		Amount:      -credits,
		Category:    models.CategorySessionPayment,
		Description: fmt.Sprintf("Session payment for %d minutes", durationMinutes),
		SessionID:   &session.ID,
	})
	e.setWorkstation(ctx, workstationID, &accountID, models.WorkstationInUse)
	e.cacheSet(ctx, session)

	metrics.SessionsStarted.Inc()
	metrics.CreditsDebited.Add(float64(credits))
	e.publish(Event{Type: EventSessionStarted, AccountID: accountID, SessionID: session.ID, Balance: &updated.Credits})

	e.logger.Info("session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("account_id", accountID),
		zap.String("workstation_id", workstationID),
		zap.Int("duration_minutes", durationMinutes),
		zap.Int64("credits", credits),
	)
	return session, updated, nil
}

// ExtendSession pushes a session's end time forward and charges for the added
// minutes. A session whose end time passed within the grace window is
// resurrected rather than forcing a fresh start.
func (e *SessionEngine) ExtendSession(ctx context.Context, sessionID, accountID int64, additionalMinutes int, credits int64) (*models.Session, *models.Account, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: lookup session: %v", ErrStoreWrite, err)
	}
	if session.AccountID != accountID {
		return nil, nil, ErrNotOwner
	}

	now := e.clock.Now().UTC()
	sinceExpiry := now.Sub(session.EndTime)
	canExtend := session.IsActive || (sinceExpiry >= 0 && sinceExpiry <= e.graceWindow)
	if !canExtend {
		return nil, nil, ErrExpiredBeyondGrace
	}

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: lookup account: %v", ErrStoreWrite, err)
	}
	if account.Credits < credits {
		return nil, nil, repository.ErrInsufficientCredits
	}

	// Anchor to the current end time while it is still ahead of the clock;
	// a grace-window resurrection anchors to now so the extension is never
	// retroactively shortened.
	anchor := session.EndTime
	if anchor.Before(now) {
		anchor = now
	}
	newEnd := anchor.Add(time.Duration(additionalMinutes) * time.Minute)

	prev := *session
	updatedSession, err := e.sessions.SetTiming(ctx, sessionID, newEnd,
		session.DurationMinutes+additionalMinutes,
		session.CreditsUsed+credits,
		true,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: update session: %v", ErrStoreWrite, err)
	}

	updatedAccount, err := e.accounts.Debit(ctx, accountID, credits)
	if err != nil {
		if _, restoreErr := e.sessions.SetTiming(ctx, sessionID, prev.EndTime, prev.DurationMinutes, prev.CreditsUsed, prev.IsActive); restoreErr != nil {
			e.logger.Error("session restore failed after debit failure",
				zap.Int64("session_id", sessionID),
				zap.Int64("account_id", accountID),
				zap.NamedError("debit_error", err),
				zap.NamedError("rollback_error", restoreErr),
			)
			return nil, nil, fmt.Errorf("%w: debit failed and rollback failed, state may be inconsistent: %v", ErrStoreWrite, err)
		}
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: debit account: %v", ErrStoreWrite, err)
	}

	e.appendLedger(ctx, &models.Transaction{
		AccountID:   accountID,
		Amount:      -credits,
		Category:    models.CategorySessionExtension,
		Description: fmt.Sprintf("Session extension for %d minutes", additionalMinutes),
		SessionID:   &sessionID,
	})
	e.cacheSet(ctx, updatedSession)

	metrics.SessionsExtended.Inc()
	metrics.CreditsDebited.Add(float64(credits))
	e.publish(Event{Type: EventSessionExtended, AccountID: accountID, SessionID: sessionID, Balance: &updatedAccount.Credits})

	e.logger.Info("session extended",
		zap.Int64("session_id", sessionID),
		zap.Int64("account_id", accountID),
		zap.Int("additional_minutes", additionalMinutes),
		zap.Int64("credits", credits),
	)
	return updatedSession, updatedAccount, nil
}

// EndSession closes a session. Deliberately lenient: a kiosk must always be
// able to leave the active-session state, so store failures are logged and
// absorbed, the cache entry is cleared regardless, and the only hard failure
// is an ownership mismatch. No refunds for unused time.
func (e *SessionEngine) EndSession(ctx context.Context, sessionID, accountID int64) (*models.Account, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			e.logger.Warn("session lookup failed during end, continuing cleanup",
				zap.Int64("session_id", sessionID), zap.Error(err))
		}
		session = nil
	}
	if session != nil && session.AccountID != accountID {
		return nil, ErrNotOwner
	}

	now := e.clock.Now().UTC()
	if session != nil {
		if err := e.sessions.Close(ctx, sessionID, now); err != nil {
			e.logger.Warn("session close failed, continuing cleanup",
				zap.Int64("session_id", sessionID), zap.Error(err))
		}
		e.setWorkstation(ctx, session.WorkstationID, nil, models.WorkstationAvailable)
	}

	e.cacheDelete(ctx, accountID)

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		e.logger.Warn("account refresh failed after session end",
			zap.Int64("account_id", accountID), zap.Error(err))
		account = nil
	}

	metrics.SessionsEnded.Inc()
	e.publish(Event{Type: EventSessionEnded, AccountID: accountID, SessionID: sessionID})

	e.logger.Info("session ended", zap.Int64("session_id", sessionID), zap.Int64("account_id", accountID))
	return account, nil
}

// GetActiveSession returns the account's current session, consulting the cache
// first. When allowGrace is set, a session whose end time passed within the
// grace window is still returned; otherwise an expired row is marked inactive,
// the same handling the expiry sweep applies.
func (e *SessionEngine) GetActiveSession(ctx context.Context, accountID int64, allowGrace bool) (*models.Session, error) {
	now := e.clock.Now().UTC()

	if cached := e.cachedSession(ctx, accountID); cached != nil {
		if !cached.EndTime.Before(now) {
			return cached, nil
		}
		if allowGrace && now.Sub(cached.EndTime) <= e.graceWindow {
			return cached, nil
		}
		// Stale entry; fall through to the store.
	}

	session, err := e.sessions.GetActiveByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("%w: lookup active session: %v", ErrStoreWrite, err)
	}

	if session.EndTime.Before(now) {
		if allowGrace && now.Sub(session.EndTime) <= e.graceWindow {
			e.cacheSet(ctx, session)
			return session, nil
		}
		if err := e.sessions.MarkInactive(ctx, session.ID); err != nil {
			e.logger.Warn("failed to mark expired session inactive",
				zap.Int64("session_id", session.ID), zap.Error(err))
		} else {
			metrics.SessionsExpired.Inc()
		}
		e.cacheDelete(ctx, accountID)
		return nil, ErrNoActiveSession
	}

	e.cacheSet(ctx, session)
	return session, nil
}

// ExpireStale reclassifies every active session whose end time has passed.
// Idempotent; invoked before bulk reads so aggregate views do not show
// sessions that have obviously finished.
func (e *SessionEngine) ExpireStale(ctx context.Context) (int64, error) {
	now := e.clock.Now().UTC()
	n, err := e.sessions.ExpireStale(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: expire sweep: %v", ErrStoreWrite, err)
	}
	if n > 0 {
		metrics.SessionsExpired.Add(float64(n))
		e.publish(Event{Type: EventSessionsExpired, Count: n})
		e.logger.Info("expired stale sessions", zap.Int64("count", n))
	}
	return n, nil
}

// ListActiveSessions sweeps expired sessions, then lists the remainder.
func (e *SessionEngine) ListActiveSessions(ctx context.Context, limit int) ([]models.Session, error) {
	if _, err := e.ExpireStale(ctx); err != nil {
		e.logger.Warn("expiry sweep failed before listing", zap.Error(err))
	}
	sessions, err := e.sessions.ListActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list active sessions: %v", ErrStoreWrite, err)
	}
	metrics.ActiveSessions.Set(float64(len(sessions)))
	return sessions, nil
}

// DashboardStats summarizes system state for the admin panel.
type DashboardStats struct {
	ActiveSessions    int   `json:"active_sessions"`
	TotalAccounts     int64 `json:"total_accounts"`
	TotalCredits      int64 `json:"total_credits"`
	CreditsSpentToday int64 `json:"credits_spent_today"`
}

// Stats sweeps expired sessions and computes dashboard aggregates.
func (e *SessionEngine) Stats(ctx context.Context) (*DashboardStats, error) {
	sessions, err := e.ListActiveSessions(ctx, 0)
	if err != nil {
		return nil, err
	}

	accountCount, totalCredits, err := e.accounts.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: account totals: %v", ErrStoreWrite, err)
	}

	now := e.clock.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	spentToday, err := e.sessions.CreditsUsedSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("%w: credits used today: %v", ErrStoreWrite, err)
	}

	return &DashboardStats{
		ActiveSessions:    len(sessions),
		TotalAccounts:     accountCount,
		TotalCredits:      totalCredits,
		CreditsSpentToday: spentToday,
	}, nil
}

// cachedSession returns the cache entry or nil; cache failures are advisory.
func (e *SessionEngine) cachedSession(ctx context.Context, accountID int64) *models.Session {
	if e.cache == nil {
		return nil
	}
	session, err := e.cache.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			e.logger.Warn("cache read failed", zap.Int64("account_id", accountID), zap.Error(err))
		}
		return nil
	}
	return session
}

func (e *SessionEngine) cacheSet(ctx context.Context, session *models.Session) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, session); err != nil {
		e.logger.Warn("cache write failed", zap.Int64("account_id", session.AccountID), zap.Error(err))
	}
}

func (e *SessionEngine) cacheDelete(ctx context.Context, accountID int64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, accountID); err != nil {
		e.logger.Warn("cache delete failed", zap.Int64("account_id", accountID), zap.Error(err))
	}
}

// appendLedger records a balance mutation in the transaction log. The log is
// an audit trail; a failed append never fails the primary operation.
func (e *SessionEngine) appendLedger(ctx context.Context, tx *models.Transaction) {
	if err := e.ledger.Append(ctx, tx); err != nil {
		e.logger.Warn("ledger append failed",
			zap.Int64("account_id", tx.AccountID),
			zap.String("category", tx.Category),
			zap.Error(err),
		)
	}
}

// setWorkstation updates terminal occupancy. Non-critical side effect.
func (e *SessionEngine) setWorkstation(ctx context.Context, id string, accountID *int64, status string) {
	if e.workstations == nil || id == "" {
		return
	}
	if err := e.workstations.SetStatus(ctx, id, accountID, status); err != nil {
		e.logger.Warn("workstation status update failed",
			zap.String("workstation_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (e *SessionEngine) publish(event Event) {
	if e.notifier == nil {
		return
	}
	e.notifier.Publish(event)
}
