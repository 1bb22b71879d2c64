package domain

import "errors"

// Sentinel errors shared by the services and stores. Handlers map them to
// status codes with errors.Is; store-specific errors never reach the client.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExpired      = errors.New("expired")
	ErrNotFound     = errors.New("not found")
	// ErrConflict is returned by a store when a conditional write loses.
	ErrConflict = errors.New("conflict")
)
