package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lancafe/internal/cache"
	"lancafe/internal/models"
	"lancafe/internal/repository"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	debitErr error
}

func newFakeAccounts(accounts ...*models.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: make(map[int64]*models.Account)}
	for _, a := range accounts {
		copied := *a
		f.accounts[a.ID] = &copied
	}
	return f
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) Debit(_ context.Context, id, amount int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if account.Credits < amount {
		return nil, repository.ErrInsufficientCredits
	}
	account.Credits -= amount
	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) Credit(_ context.Context, id, amount int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	account.Credits += amount
	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) Totals(_ context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var credits int64
	for _, a := range f.accounts {
		credits += a.Credits
	}
	return int64(len(f.accounts)), credits, nil
}

func (f *fakeAccounts) balance(id int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Credits
}

func (f *fakeAccounts) setDebitErr(err error) {
	f.mu.Lock()
	f.debitErr = err
	f.mu.Unlock()
}

type fakeSessions struct {
	mu           sync.Mutex
	sessions     map[int64]*models.Session
	nextID       int64
	createErr    error
	deleteErr    error
	setTimingErr error
	closeErr     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[int64]*models.Session), nextID: 1}
}

func (f *fakeSessions) Create(_ context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	session.ID = f.nextID
	f.nextID++
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessions) GetActiveByAccount(_ context.Context, accountID int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *models.Session
	for _, s := range f.sessions {
		if s.AccountID != accountID || !s.IsActive {
			continue
		}
		if newest == nil || s.ID > newest.ID {
			newest = s
		}
	}
	if newest == nil {
		return nil, repository.ErrSessionNotFound
	}
	copied := *newest
	return &copied, nil
}

func (f *fakeSessions) SetTiming(_ context.Context, id int64, endTime time.Time, durationMinutes int, creditsUsed int64, active bool) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setTimingErr != nil {
		return nil, f.setTimingErr
	}
	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	session.EndTime = endTime
	session.DurationMinutes = durationMinutes
	session.CreditsUsed = creditsUsed
	session.IsActive = active
	copied := *session
	return &copied, nil
}

func (f *fakeSessions) Close(_ context.Context, id int64, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	session, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.IsActive = false
	session.EndTime = endTime
	return nil
}

func (f *fakeSessions) MarkInactive(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.IsActive = false
	return nil
}

func (f *fakeSessions) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.IsActive && s.EndTime.Before(now) {
			s.IsActive = false
			s.EndTime = now
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) ListActive(_ context.Context, limit int) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSessions) CreditsUsedSince(_ context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, s := range f.sessions {
		if !s.StartTime.Before(since) {
			total += s.CreditsUsed
		}
	}
	return total, nil
}

func (f *fakeSessions) get(id int64) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil
	}
	copied := *session
	return &copied
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeLedger struct {
	mu        sync.Mutex
	entries   []models.Transaction
	appendErr error
}

func (f *fakeLedger) Append(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, *tx)
	return nil
}

func (f *fakeLedger) ListByAccount(_ context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].AccountID == accountID {
			out = append(out, f.entries[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedger) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeLedger) entryAt(index int) models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[index]
}

type fakeWorkstations struct {
	mu       sync.Mutex
	statuses map[string]string
}

func newFakeWorkstations() *fakeWorkstations {
	return &fakeWorkstations{statuses: make(map[string]string)}
}

func (f *fakeWorkstations) SetStatus(_ context.Context, id string, _ *int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeWorkstations) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeNotifier) Publish(event Event) {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
}

func (f *fakeNotifier) lastEvent() *Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	copied := f.events[len(f.events)-1]
	return &copied
}

type engineFixture struct {
	engine       *SessionEngine
	accounts     *fakeAccounts
	sessions     *fakeSessions
	ledger       *fakeLedger
	workstations *fakeWorkstations
	cache        *cache.Memory
	notifier     *fakeNotifier
	clock        *TestClock
}

func newEngineFixture(accounts ...*models.Account) *engineFixture {
	f := &engineFixture{
		accounts:     newFakeAccounts(accounts...),
		sessions:     newFakeSessions(),
		ledger:       &fakeLedger{},
		workstations: newFakeWorkstations(),
		cache:        cache.NewMemory(),
		notifier:     &fakeNotifier{},
		clock:        &TestClock{CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.engine = NewSessionEngine(SessionEngineParams{
		Accounts:     f.accounts,
		Sessions:     f.sessions,
		Ledger:       f.ledger,
		Workstations: f.workstations,
		Cache:        f.cache,
		Notifier:     f.notifier,
		Clock:        f.clock,
	})
	return f
}

func TestStartSessionDebitsAndCreatesSession(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, account, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if account.Credits != 70 {
		t.Fatalf("expected balance 70, got %d", account.Credits)
	}

	wantEnd := f.clock.CurrentTime.Add(30*time.Minute + 10*time.Second)
	if !session.EndTime.Equal(wantEnd) {
		t.Fatalf("expected end time %v, got %v", wantEnd, session.EndTime)
	}
	if !session.IsActive {
		t.Fatalf("expected session active")
	}

	if f.ledger.entryCount() != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", f.ledger.entryCount())
	}
	entry := f.ledger.entryAt(0)
	if entry.Amount != -30 || entry.Category != models.CategorySessionPayment {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
	if entry.SessionID == nil || *entry.SessionID != session.ID {
		t.Fatalf("ledger entry missing session id: %+v", entry)
	}

	if f.workstations.status("ws-01") != models.WorkstationInUse {
		t.Fatalf("expected workstation in use, got %q", f.workstations.status("ws-01"))
	}

	cached, err := f.cache.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	if cached.ID != session.ID {
		t.Fatalf("cache holds session %d, want %d", cached.ID, session.ID)
	}

	event := f.notifier.lastEvent()
	if event == nil || event.Type != EventSessionStarted {
		t.Fatalf("expected session_started event, got %+v", event)
	}
}

func TestStartSessionInsufficientCredits(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 20})

	_, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if !errors.Is(err, repository.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if f.sessions.count() != 0 {
		t.Fatalf("expected no session rows, got %d", f.sessions.count())
	}
	if f.accounts.balance(1) != 20 {
		t.Fatalf("balance changed on rejected start: %d", f.accounts.balance(1))
	}
}

func TestStartSessionRejectsSecondActive(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	if _, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-02")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	if f.accounts.balance(1) != 70 {
		t.Fatalf("second start changed balance: %d", f.accounts.balance(1))
	}
}

func TestStartSessionRollsBackOnDebitFailure(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})
	f.accounts.setDebitErr(errors.New("connection reset"))

	_, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
	if f.sessions.count() != 0 {
		t.Fatalf("session row survived failed debit")
	}
	if f.ledger.entryCount() != 0 {
		t.Fatalf("ledger entry written for failed start")
	}
	if f.accounts.balance(1) != 100 {
		t.Fatalf("balance changed on failed start: %d", f.accounts.balance(1))
	}
}

func TestStartSessionReplacesStaleActiveRow(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	// Past end time plus grace, but the sweep has not run.
	f.clock.Advance(40 * time.Minute)

	fresh, account, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if fresh.ID == session.ID {
		t.Fatalf("expected a new session row")
	}
	if old := f.sessions.get(session.ID); old == nil || old.IsActive {
		t.Fatalf("stale row not marked inactive: %+v", old)
	}
	if account.Credits != 40 {
		t.Fatalf("expected balance 40 after two paid starts, got %d", account.Credits)
	}
}

func TestExtendSessionAddsTimeAndCharges(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Advance(10 * time.Minute)
	extended, account, err := f.engine.ExtendSession(context.Background(), session.ID, 1, 30, 30)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}

	if account.Credits != 40 {
		t.Fatalf("expected balance 40, got %d", account.Credits)
	}
	if extended.DurationMinutes != 60 {
		t.Fatalf("expected 60 minutes total, got %d", extended.DurationMinutes)
	}
	if extended.CreditsUsed != 60 {
		t.Fatalf("expected 60 credits used, got %d", extended.CreditsUsed)
	}
	wantEnd := session.EndTime.Add(30 * time.Minute)
	if !extended.EndTime.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, extended.EndTime)
	}

	entry := f.ledger.entryAt(f.ledger.entryCount() - 1)
	if entry.Amount != -30 || entry.Category != models.CategorySessionExtension {
		t.Fatalf("unexpected extension ledger entry: %+v", entry)
	}
}

func TestExtendSessionWithinGraceAnchorsToNow(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.sessions.MarkInactive(context.Background(), session.ID)
	f.cache.Delete(context.Background(), 1)

	// 4 minutes past the end time, inside the 5 minute grace window.
	f.clock.CurrentTime = session.EndTime.Add(4 * time.Minute)

	extended, _, err := f.engine.ExtendSession(context.Background(), session.ID, 1, 30, 30)
	if err != nil {
		t.Fatalf("extend within grace: %v", err)
	}
	wantEnd := f.clock.CurrentTime.Add(30 * time.Minute)
	if !extended.EndTime.Equal(wantEnd) {
		t.Fatalf("expected end anchored to now %v, got %v", wantEnd, extended.EndTime)
	}
	if !extended.IsActive {
		t.Fatalf("expected resurrected session to be active")
	}
}

func TestExtendSessionBeyondGrace(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.sessions.MarkInactive(context.Background(), session.ID)

	f.clock.CurrentTime = session.EndTime.Add(6 * time.Minute)

	_, _, err = f.engine.ExtendSession(context.Background(), session.ID, 1, 30, 30)
	if !errors.Is(err, ErrExpiredBeyondGrace) {
		t.Fatalf("expected ErrExpiredBeyondGrace, got %v", err)
	}
	if f.accounts.balance(1) != 70 {
		t.Fatalf("balance changed on rejected extension: %d", f.accounts.balance(1))
	}
}

func TestExtendSessionRestoresOnDebitFailure(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.accounts.setDebitErr(errors.New("connection reset"))

	_, _, err = f.engine.ExtendSession(context.Background(), session.ID, 1, 30, 30)
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}

	restored := f.sessions.get(session.ID)
	if !restored.EndTime.Equal(session.EndTime) {
		t.Fatalf("end time not restored: got %v, want %v", restored.EndTime, session.EndTime)
	}
	if restored.DurationMinutes != 30 || restored.CreditsUsed != 30 {
		t.Fatalf("timing not restored: %+v", restored)
	}
}

func TestExtendSessionWrongOwner(t *testing.T) {
	f := newEngineFixture(
		&models.Account{ID: 1, Credits: 100},
		&models.Account{ID: 2, Credits: 100},
	)

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, _, err = f.engine.ExtendSession(context.Background(), session.ID, 2, 30, 30)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestEndSessionClosesAndFreesWorkstation(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	account, err := f.engine.EndSession(context.Background(), session.ID, 1)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if account == nil || account.Credits != 70 {
		t.Fatalf("unexpected account after end: %+v", account)
	}

	closed := f.sessions.get(session.ID)
	if closed.IsActive {
		t.Fatalf("session still active after end")
	}
	if f.workstations.status("ws-01") != models.WorkstationAvailable {
		t.Fatalf("workstation not released: %q", f.workstations.status("ws-01"))
	}
	if _, err := f.cache.Get(context.Background(), 1); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("cache entry survived end")
	}
}

func TestEndSessionLenientOnStoreFailure(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.sessions.closeErr = errors.New("connection reset")

	if _, err := f.engine.EndSession(context.Background(), session.ID, 1); err != nil {
		t.Fatalf("end should absorb store failures, got %v", err)
	}
	if _, err := f.cache.Get(context.Background(), 1); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("cache entry survived lenient end")
	}
}

func TestEndSessionUnknownIDStillSucceeds(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})
	f.cache.Set(context.Background(), &models.Session{ID: 99, AccountID: 1, EndTime: f.clock.CurrentTime.Add(time.Hour)})

	account, err := f.engine.EndSession(context.Background(), 99, 1)
	if err != nil {
		t.Fatalf("end unknown session: %v", err)
	}
	if account == nil {
		t.Fatalf("expected account in response")
	}
	if _, err := f.cache.Get(context.Background(), 1); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("stale cache entry not cleared")
	}
}

func TestEndSessionWrongOwner(t *testing.T) {
	f := newEngineFixture(
		&models.Account{ID: 1, Credits: 100},
		&models.Account{ID: 2, Credits: 100},
	)

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := f.engine.EndSession(context.Background(), session.ID, 2); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestGetActiveSessionGraceWindow(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	session, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.CurrentTime = session.EndTime.Add(3 * time.Minute)

	got, err := f.engine.GetActiveSession(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("grace lookup: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("grace lookup returned session %d, want %d", got.ID, session.ID)
	}

	// Without grace the same expired session is reclassified.
	_, err = f.engine.GetActiveSession(context.Background(), 1, false)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if row := f.sessions.get(session.ID); row.IsActive {
		t.Fatalf("expired session not marked inactive")
	}
}

func TestGetActiveSessionNone(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})

	_, err := f.engine.GetActiveSession(context.Background(), 1, false)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestExpireStaleSweepIsIdempotent(t *testing.T) {
	f := newEngineFixture(
		&models.Account{ID: 1, Credits: 100},
		&models.Account{ID: 2, Credits: 100},
	)

	if _, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01"); err != nil {
		t.Fatalf("start 1: %v", err)
	}
	if _, _, err := f.engine.StartSession(context.Background(), 2, 30, 30, "ws-02"); err != nil {
		t.Fatalf("start 2: %v", err)
	}

	f.clock.Advance(time.Hour)

	n, err := f.engine.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 expired, got %d", n)
	}

	n, err = f.engine.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep expired %d sessions", n)
	}
}

func TestListActiveSessionsSweepsFirst(t *testing.T) {
	f := newEngineFixture(
		&models.Account{ID: 1, Credits: 100},
		&models.Account{ID: 2, Credits: 100},
	)

	if _, _, err := f.engine.StartSession(context.Background(), 1, 30, 30, "ws-01"); err != nil {
		t.Fatalf("start 1: %v", err)
	}
	if _, _, err := f.engine.StartSession(context.Background(), 2, 120, 120, "ws-02"); err != nil {
		t.Fatalf("start 2: %v", err)
	}

	f.clock.Advance(time.Hour)

	sessions, err := f.engine.ListActiveSessions(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(sessions))
	}
	if sessions[0].AccountID != 2 {
		t.Fatalf("wrong session survived the sweep: %+v", sessions[0])
	}
}

func TestStatsAggregates(t *testing.T) {
	f := newEngineFixture(
		&models.Account{ID: 1, Credits: 100},
		&models.Account{ID: 2, Credits: 50},
	)

	if _, _, err := f.engine.StartSession(context.Background(), 1, 60, 60, "ws-01"); err != nil {
		t.Fatalf("start: %v", err)
	}

	stats, err := f.engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ActiveSessions != 1 {
		t.Fatalf("expected 1 active session, got %d", stats.ActiveSessions)
	}
	if stats.TotalAccounts != 2 {
		t.Fatalf("expected 2 accounts, got %d", stats.TotalAccounts)
	}
	if stats.TotalCredits != 90 {
		t.Fatalf("expected 90 total credits, got %d", stats.TotalCredits)
	}
	if stats.CreditsSpentToday != 60 {
		t.Fatalf("expected 60 credits spent today, got %d", stats.CreditsSpentToday)
	}
}

func TestSessionLifecycleScenario(t *testing.T) {
	f := newEngineFixture(&models.Account{ID: 1, Credits: 100})
	ctx := context.Background()

	session, account, err := f.engine.StartSession(ctx, 1, 30, 30, "ws-01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if account.Credits != 70 {
		t.Fatalf("after start expected 70, got %d", account.Credits)
	}

	f.clock.Advance(20 * time.Minute)
	extended, account, err := f.engine.ExtendSession(ctx, session.ID, 1, 30, 30)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if account.Credits != 40 {
		t.Fatalf("after extension expected 40, got %d", account.Credits)
	}
	if want := session.EndTime.Add(30 * time.Minute); !extended.EndTime.Equal(want) {
		t.Fatalf("expected end %v, got %v", want, extended.EndTime)
	}

	account, err = f.engine.EndSession(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	// No refund for the unused time.
	if account.Credits != 40 {
		t.Fatalf("after end expected 40, got %d", account.Credits)
	}
	if _, err := f.engine.GetActiveSession(ctx, 1, false); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected no active session after end, got %v", err)
	}
}
