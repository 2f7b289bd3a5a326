package service

// Event types published to the notification hub.
const (
	EventSessionStarted  = "session_started"
	EventSessionExtended = "session_extended"
	EventSessionEnded    = "session_ended"
	EventSessionsExpired = "sessions_expired"
	EventCreditsAdded    = "credits_added"
)

// Event describes an out-of-band change to account or session state, so other
// processes can invalidate their caches. Delivery is best effort.
type Event struct {
	Type      string `json:"type"`
	AccountID int64  `json:"account_id,omitempty"`
	SessionID int64  `json:"session_id,omitempty"`
	Balance   *int64 `json:"balance,omitempty"`
	Count     int64  `json:"count,omitempty"`
}

// Notifier publishes events. Implementations must not block the caller.
type Notifier interface {
	Publish(event Event)
}
