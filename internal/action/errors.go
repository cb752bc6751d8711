package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrUnknownType   = errors.New("unknown action type")
)

// ConfigurationError reports an input or target property whose value could
// not be coerced to the declared type.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration: %s: invalid value %q", e.Key, e.Value)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError carries the messages produced by ValidateInputs, verbatim.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation: " + e.Errors[0]
	}
	return fmt.Sprintf("validation: %d errors: %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
