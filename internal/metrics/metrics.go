// Package metrics exposes prometheus collectors for the session and credit core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_sessions_started_total",
			Help: "Total sessions started",
		},
	)

	SessionsExtended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_sessions_extended_total",
			Help: "Total session extensions",
		},
	)

	SessionsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_sessions_ended_total",
			Help: "Total sessions ended by the client",
		},
	)

	SessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_sessions_expired_total",
			Help: "Total sessions reclassified by the expiry sweep",
		},
	)

	CreditsDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_credits_debited_total",
			Help: "Total credits charged for session time",
		},
	)

	CreditsCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lancafe_credits_credited_total",
			Help: "Total credits granted by top-ups and bonuses",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lancafe_active_sessions",
			Help: "Active sessions known to the store at the last sweep",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsExtended,
		SessionsEnded,
		SessionsExpired,
		CreditsDebited,
		CreditsCredited,
		ActiveSessions,
	)
}

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
