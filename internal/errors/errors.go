package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Error types for the refscan system
type ErrorType string

const (
	// Scan errors
	ErrorTypeScan     ErrorType = "scan"
	ErrorTypeCanceled ErrorType = "canceled"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Resolution errors
	ErrorTypeResolve ErrorType = "resolve"

	// Persistence errors
	ErrorTypePersist ErrorType = "persist"

	// Input errors
	ErrorTypeValidation ErrorType = "validation"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ScanError represents a failure while loading or scanning one file.
// Callers treat per-file scan errors as non-matches and keep going, so
// the error carries enough context to be useful in a debug log.
type ScanError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewScanError creates a new scan error with context
func NewScanError(op string, err error) *ScanError {
	return &ScanError{
		Type:        ErrorTypeScan,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// WithPath adds the affected file path to the error
func (e *ScanError) WithPath(path string) *ScanError {
	e.Path = path
	return e
}

// WithRecoverable marks whether the scan can continue past this error
func (e *ScanError) WithRecoverable(recoverable bool) *ScanError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ScanError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the surrounding scan can continue
func (e *ScanError) IsRecoverable() bool {
	return e.Recoverable
}

// ResolveError represents a failure mapping between paths, GUIDs, and
// entities in the asset index.
type ResolveError struct {
	Type       ErrorType
	Key        string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewResolveError creates a new resolution error
func NewResolveError(op, key string, err error) *ResolveError {
	return &ResolveError{
		Type:       ErrorTypeResolve,
		Key:        key,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s failed for %q: %v", e.Operation, e.Key, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ResolveError) Unwrap() error {
	return e.Underlying
}

// ErrIncompatibleSlot marks a saved file whose layout this build does
// not understand (version mismatch or truncated envelope).
var ErrIncompatibleSlot = stderrors.New("incompatible saved format")

// PersistError represents a failure saving or loading result state.
// A load failure never mutates in-memory results; the caller reports
// the error and keeps whatever it had.
type PersistError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewPersistError creates a new persistence error
func NewPersistError(op, path string, err error) *PersistError {
	return &PersistError{
		Type:       ErrorTypePersist,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *PersistError) Unwrap() error {
	return e.Underlying
}

// ValidationError represents invalid input rejected before any work
// started.
type ValidationError struct {
	Type      ErrorType
	Field     string
	Reason    string
	Timestamp time.Time
}

// NewValidationError creates a new validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Type:      ErrorTypeValidation,
		Field:     field,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
