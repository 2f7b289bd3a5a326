package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lancafe/internal/models"
	"lancafe/internal/password"
	"lancafe/internal/repository"
)

// ErrInvalidCredentials represents a login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// AccountRegistry defines the storage contract used for signup and login.
type AccountRegistry interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
}

// AuthService contains registration and login logic. New accounts receive the
// welcome bonus and a matching ledger entry.
type AuthService struct {
	registry     AccountRegistry
	ledger       LedgerStore
	hasher       password.Hasher
	tokenizer    *TokenService
	welcomeBonus int64
	logger       *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(registry AccountRegistry, ledger LedgerStore, hasher password.Hasher, tokenizer *TokenService, welcomeBonus int64, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		registry:     registry,
		ledger:       ledger,
		hasher:       hasher,
		tokenizer:    tokenizer,
		welcomeBonus: welcomeBonus,
		logger:       logger,
	}
}

// Signup registers a new account with the starting bonus balance.
func (s *AuthService) Signup(ctx context.Context, username, plainPassword string) (*models.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errors.New("auth: username required")
	}
	if plainPassword == "" {
		return nil, errors.New("auth: password required")
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: hash,
		Credits:      s.welcomeBonus,
	}
	if err := s.registry.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create account: %v", ErrStoreWrite, err)
	}

	if s.welcomeBonus > 0 {
		if err := s.ledger.Append(ctx, &models.Transaction{
			AccountID:   account.ID,
			Amount:      s.welcomeBonus,
			Category:    models.CategoryWelcomeBonus,
			Description: "Welcome credits",
		}); err != nil {
			s.logger.Warn("ledger append failed for welcome bonus",
				zap.Int64("account_id", account.ID), zap.Error(err))
		}
	}

	s.logger.Info("account signed up", zap.Int64("account_id", account.ID), zap.String("username", account.Username))
	return account, nil
}

// Login authenticates an account and produces a JWT.
func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (string, *models.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || plainPassword == "" {
		return "", nil, ErrInvalidCredentials
	}

	account, err := s.registry.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(account.PasswordHash, plainPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(account.ID, account.IsAdmin)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}
