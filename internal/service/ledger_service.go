package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lancafe/internal/metrics"
	"lancafe/internal/models"
	"lancafe/internal/repository"
)

// LedgerService handles administrative balance adjustments and history reads.
// Top-ups share the account row with session debits, so they use the same
// atomic increment discipline.
type LedgerService struct {
	accounts AccountStore
	ledger   LedgerStore
	notifier Notifier
	logger   *zap.Logger
}

// NewLedgerService builds service.
func NewLedgerService(accounts AccountStore, ledger LedgerStore, notifier Notifier, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

// AddCredits grants credits to an account and records the delta in the ledger.
func (s *LedgerService) AddCredits(ctx context.Context, accountID, amount int64, reason string) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.accounts.Credit(ctx, accountID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: credit account: %v", ErrStoreWrite, err)
	}

	description := strings.TrimSpace(reason)
	if description == "" {
		description = "Admin credit addition"
	}
	if err := s.ledger.Append(ctx, &models.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Category:    models.CategoryAdminAdjustment,
		Description: description,
	}); err != nil {
		s.logger.Warn("ledger append failed for credit addition",
			zap.Int64("account_id", accountID), zap.Error(err))
	}

	metrics.CreditsCredited.Add(float64(amount))
	if s.notifier != nil {
		s.notifier.Publish(Event{Type: EventCreditsAdded, AccountID: accountID, Balance: &account.Credits})
	}

	s.logger.Info("credits added",
		zap.Int64("account_id", accountID),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", account.Credits),
	)
	return account, nil
}

// History returns the latest ledger entries for an account, newest first.
func (s *LedgerService) History(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	txs, err := s.ledger.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrStoreWrite, err)
	}
	return txs, nil
}
