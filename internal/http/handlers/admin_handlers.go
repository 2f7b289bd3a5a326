package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lancafe/internal/models"
	"lancafe/internal/repository"
	"lancafe/internal/service"
)

// WorkstationLister lists terminal state for the admin panel.
type WorkstationLister interface {
	List(ctx context.Context) ([]models.Workstation, error)
}

// NewAdminAddCreditsHandler handles POST /admin/credits.
func NewAdminAddCreditsHandler(ledgerService *service.LedgerService) http.HandlerFunc {
	type request struct {
		AccountID int64  `json:"account_id"`
		Amount    int64  `json:"amount"`
		Reason    string `json:"reason"`
	}
	type response struct {
		Success bool            `json:"success"`
		Account *models.Account `json:"account"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.AccountID == 0 {
			writeError(w, http.StatusBadRequest, "account_id is required")
			return
		}

		account, err := ledgerService.AddCredits(r.Context(), req.AccountID, req.Amount, req.Reason)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidAmount):
				writeError(w, http.StatusBadRequest, "amount must be positive")
			case errors.Is(err, repository.ErrAccountNotFound):
				writeError(w, http.StatusNotFound, "account not found")
			default:
				writeError(w, http.StatusInternalServerError, "failed to add credits")
			}
			return
		}

		writeJSON(w, http.StatusOK, response{Success: true, Account: account})
	}
}

// NewAdminActiveSessionsHandler handles GET /admin/sessions/active.
func NewAdminActiveSessionsHandler(engine *service.SessionEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		sessions, err := engine.ListActiveSessions(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list active sessions")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"sessions": sessions,
		})
	}
}

// NewAdminStatsHandler handles GET /admin/stats.
func NewAdminStatsHandler(engine *service.SessionEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := engine.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"stats":   stats,
		})
	}
}

// NewAdminTransactionsHandler handles GET /admin/transactions?account_id=N.
func NewAdminTransactionsHandler(ledgerService *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
		if err != nil || accountID <= 0 {
			writeError(w, http.StatusBadRequest, "account_id query parameter is required")
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

// NewAdminWorkstationsHandler handles GET /admin/workstations.
func NewAdminWorkstationsHandler(workstations WorkstationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := workstations.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list workstations")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"workstations": stations,
		})
	}
}
