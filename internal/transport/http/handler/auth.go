package handler

import (
	"encoding/json"
	"net/http"

	"github.com/portal-auth/internal/application/auth"
	"github.com/portal-auth/internal/pkg/validate"
	"github.com/portal-auth/internal/transport/http/middleware"
)

const deliveryWarning = "code was created but the email could not be sent; try again shortly"

// AuthHandler handles code issuance and redemption.
type AuthHandler struct {
	svc     auth.Service
	cookies middleware.CookieOptions
}

func NewAuthHandler(svc auth.Service, cookies middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req auth.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SendCodeEnvelope{Error: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, SendCodeEnvelope{Error: "email is required"})
		return
	}

	res, err := h.svc.SendCode(r.Context(), req.Email)
	if err != nil {
		status, msg := httpError(r, err)
		writeJSON(w, status, SendCodeEnvelope{Error: msg})
		return
	}
	env := SendCodeEnvelope{Success: true}
	if !res.Delivered {
		env.Warning = deliveryWarning
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyCodeEnvelope{Error: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyCodeEnvelope{Error: "email and 5-digit code are required"})
		return
	}

	res, err := h.svc.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		status, msg := httpError(r, err)
		writeJSON(w, status, VerifyCodeEnvelope{Error: msg})
		return
	}
	middleware.NewCookieClient(w, r, h.cookies).StoreCredential(res.SessionID)
	writeJSON(w, http.StatusOK, VerifyCodeEnvelope{
		Success:   true,
		SessionID: res.SessionID,
		ExpiresAt: &res.ExpiresAt,
	})
}
