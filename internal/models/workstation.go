package models

import "time"

// Workstation statuses.
const (
	WorkstationAvailable   = "available"
	WorkstationInUse       = "in_use"
	WorkstationMaintenance = "maintenance"
	WorkstationOffline     = "offline"
)

// Workstation is a physical terminal. Status is a side effect of session
// start/end and carries no balance invariants.
type Workstation struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Status        string     `db:"status" json:"status"`
	LastAccountID *int64     `db:"last_account_id" json:"last_account_id,omitempty"`
	LastActive    *time.Time `db:"last_active" json:"last_active,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ValidWorkstationStatus reports whether s is a known status.
func ValidWorkstationStatus(s string) bool {
	switch s {
	case WorkstationAvailable, WorkstationInUse, WorkstationMaintenance, WorkstationOffline:
		return true
	}
	return false
}
