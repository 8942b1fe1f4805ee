package store

import (
	"errors"
	"fmt"
)

// StoreError reports a failure to open or query a database.
type StoreError struct {
	// Code identifies the error category.
	Code StoreErrorCode

	// Driver is the backend that failed.
	Driver string

	// Message is a human-readable description.
	Message string

	// Err is the driver error, if any.
	Err error
}

// StoreErrorCode categorizes store errors.
type StoreErrorCode string

const (
	// ErrCodeUnknownDriver indicates no backend is registered for the driver.
	ErrCodeUnknownDriver StoreErrorCode = "UNKNOWN_DRIVER"

	// ErrCodeOpenFailed indicates the database could not be opened or reached.
	ErrCodeOpenFailed StoreErrorCode = "OPEN_FAILED"

	// ErrCodeQueryFailed indicates a statement failed.
	ErrCodeQueryFailed StoreErrorCode = "QUERY_FAILED"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Driver != "" {
		return fmt.Sprintf("%s: %s (driver=%s)", e.Code, e.Message, e.Driver)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewUnknownDriverError creates an error for an unregistered driver.
func NewUnknownDriverError(driver string) *StoreError {
	return &StoreError{
		Code:    ErrCodeUnknownDriver,
		Driver:  driver,
		Message: fmt.Sprintf("no backend registered for driver %q", driver),
	}
}

// NewOpenError wraps a failure to open a database.
func NewOpenError(driver string, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeOpenFailed,
		Driver:  driver,
		Message: fmt.Sprintf("failed to open database: %v", err),
		Err:     err,
	}
}

// NewQueryError wraps a failed statement.
func NewQueryError(driver string, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeQueryFailed,
		Driver:  driver,
		Message: fmt.Sprintf("query failed: %v", err),
		Err:     err,
	}
}

// IsUnknownDriverError returns true if err is an unknown driver error.
func IsUnknownDriverError(err error) bool { return hasCode(err, ErrCodeUnknownDriver) }

// IsOpenError returns true if err is a failure to open a database.
func IsOpenError(err error) bool { return hasCode(err, ErrCodeOpenFailed) }

// IsQueryError returns true if err is a failed statement.
func IsQueryError(err error) bool { return hasCode(err, ErrCodeQueryFailed) }

func hasCode(err error, code StoreErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
