package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lancafe/internal/http/middleware"
	"lancafe/internal/models"
	"lancafe/internal/repository"
	"lancafe/internal/service"
)

type sessionResponse struct {
	Success bool            `json:"success"`
	Session *models.Session `json:"session,omitempty"`
	Account *models.Account `json:"account,omitempty"`
}

// writeSessionError maps engine errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, repository.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, "no active session")
	case errors.Is(err, service.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "an active session already exists")
	case errors.Is(err, repository.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "session belongs to another account")
	case errors.Is(err, service.ErrExpiredBeyondGrace):
		writeError(w, http.StatusGone, "session expired beyond the grace window")
	default:
		writeError(w, http.StatusInternalServerError, "could not complete the operation, try again")
	}
}

// NewSessionStartHandler handles POST /sessions/start.
func NewSessionStartHandler(engine *service.SessionEngine) http.HandlerFunc {
	type request struct {
		DurationMinutes int    `json:"duration_minutes"`
		Credits         int64  `json:"credits"`
		WorkstationID   string `json:"workstation_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.DurationMinutes <= 0 || req.Credits <= 0 {
			writeError(w, http.StatusBadRequest, "duration_minutes and credits must be positive")
			return
		}

		session, account, err := engine.StartSession(r.Context(), accountID, req.DurationMinutes, req.Credits, req.WorkstationID)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: session, Account: account})
	}
}

// NewSessionExtendHandler handles POST /sessions/extend.
func NewSessionExtendHandler(engine *service.SessionEngine) http.HandlerFunc {
	type request struct {
		SessionID         int64 `json:"session_id"`
		AdditionalMinutes int   `json:"additional_minutes"`
		Credits           int64 `json:"credits"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == 0 || req.AdditionalMinutes <= 0 || req.Credits <= 0 {
			writeError(w, http.StatusBadRequest, "session_id, additional_minutes and credits are required")
			return
		}

		session, account, err := engine.ExtendSession(r.Context(), req.SessionID, accountID, req.AdditionalMinutes, req.Credits)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session, Account: account})
	}
}

// NewSessionEndHandler handles POST /sessions/end. Ending is lenient on the
// engine side; the only client-visible failure is an ownership mismatch.
func NewSessionEndHandler(engine *service.SessionEngine) http.HandlerFunc {
	type request struct {
		SessionID int64 `json:"session_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == 0 {
			writeError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		account, err := engine.EndSession(r.Context(), req.SessionID, accountID)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Account: account})
	}
}

// NewActiveSessionHandler handles GET /sessions/active. The grace query flag
// lets a reconnecting kiosk recover a session that just expired.
func NewActiveSessionHandler(engine *service.SessionEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		allowGrace := r.URL.Query().Get("grace") == "1"
		session, err := engine.GetActiveSession(r.Context(), accountID, allowGrace)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
	}
}
