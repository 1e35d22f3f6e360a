package domain

import "errors"

// ErrNotFound is returned by repo and service functions when no trip document
// has been stored yet.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule (e.g. a body that
// is not a JSON object, an unknown trip field name).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")
