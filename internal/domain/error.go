package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedType means the declared content type maps to no
	// extraction strategy. Fatal, never retried.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrRunInFlight means another ingestion run already holds the
	// per-file guard.
	ErrRunInFlight = errors.New("ingestion run already in flight")
	// ErrEmptyCompletion means the model returned a blank response.
	ErrEmptyCompletion = errors.New("empty completion response")

	// Storage plumbing errors
	ErrInvalidExecContext = errors.New("invalid SQL execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// StrategyFamily identifies one of the fixed text extraction strategies.
type StrategyFamily string

const (
	FamilySpreadsheet StrategyFamily = "spreadsheet"
	FamilyDocument    StrategyFamily = "document"
	FamilyPDF         StrategyFamily = "pdf"
	FamilyPlainText   StrategyFamily = "plaintext"
	FamilyImage       StrategyFamily = "image"
)

// ExtractionError is a fatal strategy failure. The file cannot yield text
// and the run must not retry.
type ExtractionError struct {
	Family StrategyFamily
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Family, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TransportError wraps a failed call to the completion provider. Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports a completion response that parsed or validated
// badly enough to discard in full. Retryable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("completion response invalid: %s", e.Reason)
}

// StorageError wraps a repository failure. It aborts the current run; the
// last durably written status stands.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another extraction attempt.
// Transport and validation failures are; everything else is not.
func Retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrEmptyCompletion)
}
