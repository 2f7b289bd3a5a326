package repository

import (
	"context"
	"database/sql"

	"lancafe/internal/models"
)

// WorkstationRepository stores physical terminal state.
type WorkstationRepository struct {
	db *sql.DB
}

// NewWorkstationRepository returns repository.
func NewWorkstationRepository(db *sql.DB) *WorkstationRepository {
	return &WorkstationRepository{db: db}
}

// SetStatus upserts a workstation and records its current occupant. Kiosks
// self-register on first sight, so an unknown id creates the row.
func (r *WorkstationRepository) SetStatus(ctx context.Context, id string, accountID *int64, status string) error {
	if !models.ValidWorkstationStatus(status) {
		status = models.WorkstationAvailable
	}
	const query = `
		INSERT INTO workstations (id, status, last_account_id, last_active, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			last_account_id = EXCLUDED.last_account_id,
			last_active = NOW(),
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, id, status, accountID)
	return err
}

// List returns all workstations ordered by id.
func (r *WorkstationRepository) List(ctx context.Context) ([]models.Workstation, error) {
	const query = `
		SELECT id, name, status, last_account_id, last_active, updated_at
		FROM workstations
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Workstation
	for rows.Next() {
		var w models.Workstation
		if err := rows.Scan(&w.ID, &w.Name, &w.Status, &w.LastAccountID, &w.LastActive, &w.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
