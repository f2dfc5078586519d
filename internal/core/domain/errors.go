package domain

import "errors"

// Sentinel errors for the authentication and task subsystems. Callers match
// with errors.Is; the HTTP layer maps each kind to a status code in one place.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMalformedToken  = errors.New("malformed token")
	ErrTokenExpired    = errors.New("token expired")
	ErrSubjectMismatch = errors.New("token subject mismatch")

	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidDescription = errors.New("invalid task description")
	ErrMalformedPatch     = errors.New("malformed patch document")
	ErrPatchFailed        = errors.New("patch application failed")
)
