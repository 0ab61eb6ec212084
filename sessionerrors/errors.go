package sessionerrors

import "errors"

// Session sentinel errors. Shared by sessions, ws and catalog to avoid
// circular imports.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownVariant  = errors.New("unknown card variant")
)
