package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// Run error taxonomy. Every failure recorded in a run report is classified
// under exactly one of these.
var (
	// ErrFetchTimeout: a retrieval attempt exceeded its time bound.
	ErrFetchTimeout = errors.New("fetch timeout")

	// ErrFetchMalformed: the retrieved document was missing, empty or had no item collection.
	ErrFetchMalformed = errors.New("malformed feed")

	// ErrParse: an item's publish time could not be parsed.
	ErrParse = errors.New("unparseable publish time")

	// ErrDelivery: the delivery collaborator rejected or failed a batch.
	ErrDelivery = errors.New("delivery failed")

	// ErrConfiguration: the run was asked for something the configuration does not allow.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownTopic: a topic identifier outside the known set.
	ErrUnknownTopic = fmt.Errorf("%w: unknown topic", ErrConfiguration)
)

// FailureKind classifies a recorded failure.
type FailureKind string

const (
	FailureFetchTimeout   FailureKind = "fetch_timeout"
	FailureFetchMalformed FailureKind = "fetch_malformed"
	FailureFetchTransport FailureKind = "fetch_transport"
	FailureParse          FailureKind = "parse_error"
	FailureDelivery       FailureKind = "delivery_failure"
	FailureCommit         FailureKind = "commit_failure"
	FailureWatermarkLoad  FailureKind = "watermark_load_failure"
	FailureConfiguration  FailureKind = "configuration_error"
)

// KindOf maps an error to its FailureKind. Errors outside the taxonomy are
// reported as transport failures.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrConfiguration):
		return FailureConfiguration
	case errors.Is(err, ErrFetchTimeout):
		return FailureFetchTimeout
	case errors.Is(err, ErrFetchMalformed):
		return FailureFetchMalformed
	case errors.Is(err, ErrParse):
		return FailureParse
	case errors.Is(err, ErrDelivery):
		return FailureDelivery
	default:
		return FailureFetchTransport
	}
}

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is lets a ValidationError match ErrConfiguration and ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConfiguration || target == ErrValidationFailed
}
