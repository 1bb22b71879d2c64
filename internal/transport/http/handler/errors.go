package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/portal-auth/internal/application/auth"
	"github.com/portal-auth/internal/application/whitelist"
	"github.com/portal-auth/internal/domain"
)

// httpError maps a service error to a status code and a client-safe message.
// Anything unrecognised is a 500 and is logged with its full chain.
func httpError(r *http.Request, err error) (int, string) {
	switch {
	case errors.Is(err, whitelist.ErrMalformed):
		return http.StatusBadRequest, "invalid email address"
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "email and 5-digit code are required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "email is not authorized"
	case errors.Is(err, auth.ErrCodeExpired):
		return http.StatusUnauthorized, "code expired"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrExpired):
		return http.StatusUnauthorized, "invalid code"
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	return http.StatusInternalServerError, "internal error"
}
