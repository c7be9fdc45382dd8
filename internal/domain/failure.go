package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing request fields.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a missing or invalid credential or token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a lookup that matched no document.
	ErrNotFound = errors.New("not found")
	// ErrUnknown marks a storage or transport failure.
	ErrUnknown = errors.New("unknown error")
)

// Failure is a typed outcome carrying one of the sentinel kinds above
// together with a message safe to show to clients.
type Failure struct {
	Kind   error
	Detail string
	Cause  error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Detail, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Failure) Is(target error) bool {
	return f.Kind == target
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func Conflict(detail string) *Failure {
	return &Failure{Kind: ErrConflict, Detail: detail}
}

func NotFound(detail string) *Failure {
	return &Failure{Kind: ErrNotFound, Detail: detail}
}

func Unknown(detail string, cause error) *Failure {
	return &Failure{Kind: ErrUnknown, Detail: detail, Cause: cause}
}

func Validation(detail string) *Failure {
	return &Failure{Kind: ErrValidation, Detail: detail}
}

func Unauthorized(detail string) *Failure {
	return &Failure{Kind: ErrUnauthorized, Detail: detail}
}

// DetailOf returns the client-facing message of err. Errors that are not a
// Failure produce a generic message so driver text never leaks.
func DetailOf(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Detail != "" {
		return f.Detail
	}
	return "Unknown error occurred"
}
