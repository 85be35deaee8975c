// Package supabase talks to the hosted identity and data service: it
// verifies bearer tokens against the published key set, proxies account
// operations to the identity API and implements the table-query interface
// over the REST query layer.
package supabase

import (
	"errors"
	"fmt"
)

// InvalidCredentials is the only message callers ever see for a failed verification
const InvalidCredentials = "invalid authentication credentials"

// Distinct verification causes. They are logged, never returned to clients.
var (
	ErrMalformedToken      = errors.New("malformed token")
	ErrUnknownSigningKey   = errors.New("unknown signing key")
	ErrSignatureInvalid    = errors.New("signature invalid")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidClaims       = errors.New("invalid claims")
	ErrUpstreamUnavailable = errors.New("signing keys unavailable")
)

// AuthError is returned for every failed verification.
// Error() is uniform; errors.Is sees both the cause and the underlying detail.
type AuthError struct {
	Cause  error
	Detail error
}

func (e *AuthError) Error() string {
	return InvalidCredentials
}

func (e *AuthError) Unwrap() []error {
	if e.Detail == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.Detail}
}

// Reason describes the internal cause for server-side logs
func (e *AuthError) Reason() string {
	if e.Detail == nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Cause, e.Detail)
}

func authError(cause, detail error) *AuthError {
	return &AuthError{Cause: cause, Detail: detail}
}

// APIError is a non-2xx response from the identity or REST API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.StatusCode, e.Message)
}
