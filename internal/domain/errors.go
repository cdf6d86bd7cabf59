package domain

import "errors"

// Shared error taxonomy. Handlers map these to HTTP status codes,
// services wrap them with context via fmt.Errorf("...: %w", err).
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidSignature = errors.New("invalid payment signature")
)
