package models

import "time"

// Transaction categories. Negative amounts are debits.
const (
	CategorySessionPayment   = "session_payment"
	CategorySessionExtension = "session_extension"
	CategoryAdminAdjustment  = "admin_adjustment"
	CategoryWelcomeBonus     = "welcome_bonus"
)

// Transaction is an immutable ledger entry for one balance-changing event.
type Transaction struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	SessionID   *int64    `db:"session_id" json:"session_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
