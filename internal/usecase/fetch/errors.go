// Package fetch retrieves feed documents for sources with bounded retries.
// Every source yields exactly one Result: a document or a tagged failure.
package fetch

import (
	"fmt"

	"newsbot/internal/domain/entity"
)

// FetchError is the tagged failure of a source that exhausted its attempts.
type FetchError struct {
	Source   string
	Kind     entity.FailureKind
	Attempts int
	// Message is the last attempt's error message.
	Message string

	err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: %s after %d attempt(s): %s", e.Source, e.Kind, e.Attempts, e.Message)
}

// Unwrap exposes the classified cause (entity.ErrFetchTimeout, entity.ErrFetchMalformed or a transport error).
func (e *FetchError) Unwrap() error {
	return e.err
}
