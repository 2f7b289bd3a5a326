package httpserver

import "net/http"

// Routes groups handlers. Auth and admin wrapping happens in NewRouter so
// handlers stay plain functions.
type Routes struct {
	Signup http.HandlerFunc
	Login  http.HandlerFunc

	SessionStart   http.HandlerFunc
	SessionExtend  http.HandlerFunc
	SessionEnd     http.HandlerFunc
	ActiveSession  http.HandlerFunc
	TransactionsMe http.HandlerFunc
	WS             http.HandlerFunc

	AdminAddCredits     http.HandlerFunc
	AdminActiveSessions http.HandlerFunc
	AdminStats          http.HandlerFunc
	AdminTransactions   http.HandlerFunc
	AdminWorkstations   http.HandlerFunc

	Health  http.HandlerFunc
	Metrics http.Handler
}

// Middleware wraps a handler chain.
type Middleware func(http.Handler) http.Handler

// NewRouter registers endpoints. requireAuth guards every account-scoped
// route; requireAdmin stacks on top of it for the admin surface.
func NewRouter(routes Routes, requireAuth, requireAdmin Middleware) http.Handler {
	mux := http.NewServeMux()

	if routes.Signup != nil {
		mux.Handle("/auth/signup", method(http.MethodPost, routes.Signup))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}

	if routes.SessionStart != nil {
		mux.Handle("/sessions/start", authed(requireAuth, method(http.MethodPost, routes.SessionStart)))
	}
	if routes.SessionExtend != nil {
		mux.Handle("/sessions/extend", authed(requireAuth, method(http.MethodPost, routes.SessionExtend)))
	}
	if routes.SessionEnd != nil {
		mux.Handle("/sessions/end", authed(requireAuth, method(http.MethodPost, routes.SessionEnd)))
	}
	if routes.ActiveSession != nil {
		mux.Handle("/sessions/active", authed(requireAuth, method(http.MethodGet, routes.ActiveSession)))
	}
	if routes.TransactionsMe != nil {
		mux.Handle("/transactions/me", authed(requireAuth, method(http.MethodGet, routes.TransactionsMe)))
	}
	if routes.WS != nil {
		mux.Handle("/ws", authed(requireAuth, method(http.MethodGet, routes.WS)))
	}

	if routes.AdminAddCredits != nil {
		mux.Handle("/admin/credits", admined(requireAuth, requireAdmin, method(http.MethodPost, routes.AdminAddCredits)))
	}
	if routes.AdminActiveSessions != nil {
		mux.Handle("/admin/sessions/active", admined(requireAuth, requireAdmin, method(http.MethodGet, routes.AdminActiveSessions)))
	}
	if routes.AdminStats != nil {
		mux.Handle("/admin/stats", admined(requireAuth, requireAdmin, method(http.MethodGet, routes.AdminStats)))
	}
	if routes.AdminTransactions != nil {
		mux.Handle("/admin/transactions", admined(requireAuth, requireAdmin, method(http.MethodGet, routes.AdminTransactions)))
	}
	if routes.AdminWorkstations != nil {
		mux.Handle("/admin/workstations", admined(requireAuth, requireAdmin, method(http.MethodGet, routes.AdminWorkstations)))
	}

	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}

	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func authed(requireAuth Middleware, handler http.Handler) http.Handler {
	if requireAuth == nil {
		return handler
	}
	return requireAuth(handler)
}

func admined(requireAuth, requireAdmin Middleware, handler http.Handler) http.Handler {
	if requireAdmin != nil {
		handler = requireAdmin(handler)
	}
	return authed(requireAuth, handler)
}
