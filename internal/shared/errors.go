package shared

import "errors"

// Sentinels shared between the auth layer and the session middleware.
var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for any login failure; callers
	// must not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing reports an absent CSRF token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch reports a token that failed verification.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
