package handlers

import (
	"net/http"

	"lancafe/internal/http/middleware"
	"lancafe/internal/ws"
)

// NewWSHandler handles GET /ws, upgrading authenticated clients to the event
// stream.
func NewWSHandler(wsServer *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}
		wsServer.HandleWS(accountID, w, r)
	}
}
