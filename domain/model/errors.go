package model

import "fmt"

// AuthErrorKind distinguishes credential failures that require different caller action.
type AuthErrorKind string

const (
	AuthExpiredAndUnrefreshable AuthErrorKind = "expired_and_unrefreshable"
	AuthReauthorizationRequired AuthErrorKind = "reauthorization_required"
	AuthDirectLoginUnsupported  AuthErrorKind = "direct_login_unsupported"
	AuthInvalidCredential       AuthErrorKind = "invalid_credential"
)

// AuthError is an expired, invalid or unrefreshable credential.
type AuthError struct {
	Kind     AuthErrorKind
	Platform string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error (%s) on %s: %v", e.Kind, e.Platform, e.Err)
	}
	return fmt.Sprintf("auth error (%s) on %s", e.Kind, e.Platform)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError rejects a request before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Reason }

const (
	ReasonAccountInactive     = "account_inactive"
	ReasonUnsupportedPlatform = "unsupported_platform"
	ReasonMalformedContent    = "malformed_content"
	ReasonAccountNotFound     = "account_not_found"
)

// PlatformAPIError carries the platform's own error code and message for diagnostics.
type PlatformAPIError struct {
	Platform   string
	StatusCode int
	Code       string
	Message    string
}

func (e *PlatformAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, code %q): %s", e.Platform, e.StatusCode, e.Code, e.Message)
}

// TimeoutError marks a publish job that exceeded its polling deadline.
type TimeoutError struct {
	JobID    string
	Deadline string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("publish job %s exceeded polling deadline %s", e.JobID, e.Deadline)
}

// StateErrorKind distinguishes a missing state token from an expired one.
// Callers treat both identically; the kind exists for logging.
type StateErrorKind string

const (
	StateNotFound StateErrorKind = "not_found"
	StateExpired  StateErrorKind = "expired"
)

// StateError is an OAuth state token that is unknown, expired or already consumed.
type StateError struct {
	Kind StateErrorKind
}

func (e *StateError) Error() string { return "oauth state " + string(e.Kind) }
