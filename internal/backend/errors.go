package backend

import "errors"

var (
	// ErrNotAuthenticated means the token is missing or rejected by the
	// backend. Surfaced as a sign-in redirect by the UI, not handled here.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConflict means the desk became unavailable between the client
	// check and the submission; the backend is the serialization point.
	ErrConflict = errors.New("booking conflict")

	// ErrValidation means the backend rejected the request payload.
	ErrValidation = errors.New("validation failed")

	// ErrBackend covers transport failures and unexpected statuses.
	ErrBackend = errors.New("backend request failed")

	// ErrNotFound means the referenced desk or booking does not exist.
	ErrNotFound = errors.New("not found")
)
