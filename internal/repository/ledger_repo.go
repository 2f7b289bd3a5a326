package repository

import (
	"context"
	"database/sql"

	"lancafe/internal/models"
)

// LedgerRepository persists the append-only transaction log.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository returns repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a new ledger entry. Entries are never updated or deleted.
func (r *LedgerRepository) Append(ctx context.Context, tx *models.Transaction) error {
	const query = `
		INSERT INTO ledger_entries (account_id, amount, category, description, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		tx.AccountID,
		tx.Amount,
		tx.Category,
		tx.Description,
		tx.SessionID,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListByAccount returns the latest entries for an account, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, account_id, amount, category, description, session_id, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Amount,
			&tx.Category,
			&tx.Description,
			&tx.SessionID,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
