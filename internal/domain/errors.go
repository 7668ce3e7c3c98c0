package domain

import "errors"

// Sentinel errors for the application. ErrNotFound doubles as the response
// for ownership failures so the API never confirms a message's existence to
// anyone but its participants.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal server error")
)
