package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/portal-auth/internal/application/session"
	"github.com/portal-auth/internal/transport/http/middleware"
)

type checkSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionHandler handles session validation.
type SessionHandler struct {
	svc     session.Service
	cookies middleware.CookieOptions
}

func NewSessionHandler(svc session.Service, cookies middleware.CookieOptions) *SessionHandler {
	return &SessionHandler{svc: svc, cookies: cookies}
}

// CheckSession validates the session id from the body, falling back to the
// session cookie when the body carries none.
func (h *SessionHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	var req checkSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, CheckSessionEnvelope{Error: "invalid request body"})
		return
	}
	if req.SessionID == "" {
		req.SessionID, _ = middleware.NewCookieClient(w, r, h.cookies).Credential()
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, CheckSessionEnvelope{Error: "sessionId is required"})
		return
	}

	res, err := h.svc.Check(r.Context(), req.SessionID)
	if err != nil {
		status, msg := httpError(r, err)
		writeJSON(w, status, CheckSessionEnvelope{Error: msg})
		return
	}
	if !res.Valid {
		writeJSON(w, http.StatusOK, CheckSessionEnvelope{Reason: string(res.Reason)})
		return
	}
	writeJSON(w, http.StatusOK, CheckSessionEnvelope{Valid: true, Email: res.Email, ExpiresAt: &res.ExpiresAt})
}
