package handlers

import (
	"net/http"
	"strconv"

	"lancafe/internal/http/middleware"
	"lancafe/internal/service"
)

// NewTransactionsMeHandler handles GET /transactions/me.
func NewTransactionsMeHandler(ledgerService *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		txs, err := ledgerService.History(r.Context(), accountID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"transactions": txs,
		})
	}
}
