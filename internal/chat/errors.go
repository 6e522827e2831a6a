package chat

import "errors"

// Failure taxonomy surfaced to handlers. Validation and authorization
// failures are returned before any side effect; persistence failures abort
// the whole operation; delivery failures are swallowed inside the hub and
// never reach callers.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid request")
)
