package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// subject, slug, or subject type does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. unknown scope on an unscoped type, reserved word).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a unique index on (subject_type, scope, slug)
// rejects a write even though the slug was resolved as free beforehand.
// Callers recover by resolving a fresh candidate and retrying.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("slug conflict")
