package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"lancafe/internal/models"
)

// AccountRepository handles persistence of customer accounts and balances.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = "id, username, password_hash, credits, is_admin, created_at, updated_at"

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Credits, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account with its starting balance.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Username = strings.ToLower(strings.TrimSpace(account.Username))
	const query = `
		INSERT INTO accounts (username, password_hash, credits, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Username,
		account.PasswordHash,
		account.Credits,
		account.IsAdmin,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// GetByID fetches an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername fetches an account by its handle.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1 LIMIT 1`
	return scanAccount(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(username))))
}

// Debit atomically subtracts amount from the balance, refusing the update if
// the balance cannot cover it. The conditional form closes the read-modify-write
// race between concurrent writers.
func (r *AccountRepository) Debit(ctx context.Context, id, amount int64) (*models.Account, error) {
	const query = `
		UPDATE accounts
		SET credits = credits - $2,
		    updated_at = NOW()
		WHERE id = $1 AND credits >= $2
		RETURNING ` + accountColumns
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Row exists but the condition failed, or the account is gone.
			if _, checkErr := r.GetByID(ctx, id); checkErr != nil {
				return nil, checkErr
			}
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}
	return account, nil
}

// Credit atomically adds amount to the balance.
func (r *AccountRepository) Credit(ctx context.Context, id, amount int64) (*models.Account, error) {
	const query = `
		UPDATE accounts
		SET credits = credits + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, id, amount))
}

// Totals returns account count and the sum of all balances, for dashboards.
func (r *AccountRepository) Totals(ctx context.Context) (count, credits int64, err error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(credits), 0) FROM accounts`
	err = r.db.QueryRowContext(ctx, query).Scan(&count, &credits)
	return count, credits, err
}
