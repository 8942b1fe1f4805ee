package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/catsite/internal/config"
)

// LoadError is a failure to load the site configuration.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants, shared by all commands.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeNotFound       = "E002" // Configuration path not found
	ErrCodeConfigInvalid  = "E003" // Configuration does not load or fails the site schema
	ErrCodeStoreOpen      = "E004" // Database cannot be opened
	ErrCodeReadFailed     = "E005" // Page or template unreadable
	ErrCodeWriteFailed    = "E006" // Output file write error
	ErrCodeInvalidDialect = "E007" // Unknown SQL dialect

	ErrCodeSchemaProblem  = "E101" // Table schema map problem
	ErrCodeInvalidMask    = "E102" // Wildcard mask cannot be compiled
	ErrCodeNothingPlanned = "E103" // No field of the template resolves
)

// LoadSite loads the site configuration at path and overrides its options
// with opts.
func LoadSite(path string, opts map[string]string) (*config.Site, error) {
	site, err := config.Load(path)
	if err != nil {
		return nil, convertConfigError(err)
	}
	if len(opts) > 0 {
		site = site.WithOptions(opts)
	}
	return site, nil
}

// convertConfigError maps a configuration error to a LoadError with
// position info.
func convertConfigError(err error) *LoadError {
	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	code := ErrCodeConfigInvalid
	if ce.Code == config.ErrCodeNotFound {
		code = ErrCodeNotFound
	}
	msg := ce.Message
	if ce.Field != "" {
		msg = ce.Field + ": " + msg
	}
	return &LoadError{Code: code, Message: msg, Pos: ce.Pos}
}

// loadFailure reports a LoadSite error on formatter. A missing or broken
// configuration is a command error.
func loadFailure(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		msg := le.Message
		if le.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d: %s", le.Pos.Filename(), le.Pos.Line(), msg)
		}
		return f.fail(ExitCommandError, le.Code, msg, nil)
	}
	return f.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}
