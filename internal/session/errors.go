package session

import (
	"errors"
	"fmt"
)

// ErrorBanner is the only text shown to the user when a search fails.
const ErrorBanner = "Something went wrong ..."

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("invalid search term")

	// ErrStaleResponse is returned by Complete for a response that belongs to a
	// superseded search. Callers drop it silently.
	ErrStaleResponse = errors.New("stale response")
)

// ValidationError rejects a search term before any network interaction.
type ValidationError struct {
	Term string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q is empty after trimming", ErrValidation.Error(), e.Term)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
