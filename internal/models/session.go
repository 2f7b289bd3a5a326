package models

import "time"

// Session is one paid occupation of a workstation for a bounded duration.
// DurationMinutes and CreditsUsed accumulate across extensions; EndTime moves
// forward with each extension.
type Session struct {
	ID              int64     `db:"id" json:"id"`
	AccountID       int64     `db:"account_id" json:"account_id"`
	WorkstationID   string    `db:"workstation_id" json:"workstation_id"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreditsUsed     int64     `db:"credits_used" json:"credits_used"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
