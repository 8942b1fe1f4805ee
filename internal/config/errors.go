package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// ConfigError reports a site configuration that cannot be loaded.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Field is the CUE path of the offending value, if known.
	Field string

	// Message is a human-readable description.
	Message string

	// Pos is the CUE source position, if available.
	Pos token.Pos
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeNotFound indicates the configuration path does not exist.
	ErrCodeNotFound ConfigErrorCode = "NOT_FOUND"

	// ErrCodeLoadFailed indicates the CUE files could not be loaded or built.
	ErrCodeLoadFailed ConfigErrorCode = "LOAD_FAILED"

	// ErrCodeMissingSite indicates there is no "catsite" field.
	ErrCodeMissingSite ConfigErrorCode = "MISSING_SITE"

	// ErrCodeInvalid indicates the configuration does not satisfy #Site.
	ErrCodeInvalid ConfigErrorCode = "INVALID"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

// IsNotFoundError returns true if err reports a missing configuration path.
func IsNotFoundError(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsInvalidError returns true if err reports a configuration that does
// not satisfy the schema.
func IsInvalidError(err error) bool { return hasCode(err, ErrCodeInvalid) }

func hasCode(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
