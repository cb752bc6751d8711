package environment

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/RedouaeElalami/chutney/internal/target"
)

var (
	ErrInvalidName     = errors.New("invalid environment name")
	ErrAlreadyExisting = errors.New("environment already exists")
	ErrNotFound        = errors.New("environment not found")
	ErrTargetNotFound  = errors.New("target not found")
)

// namePattern allows letters, digits, '_' and '-'; no spaces.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{3,20}$`)

// Environment is a named collection of targets.
type Environment struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Targets     []target.Target `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Target returns the target named name.
func (e Environment) Target(name string) (target.Target, bool) {
	for _, t := range e.Targets {
		if t.Name == name {
			return t.Clone(), true
		}
	}
	return target.Target{}, false
}

// WithoutSecrets returns a copy of e with every target password cleared.
// Responses to clients carry this copy; e is not modified.
func (e Environment) WithoutSecrets() Environment {
	out := e
	if e.Targets == nil {
		return out
	}
	out.Targets = make([]target.Target, len(e.Targets))
	for i, t := range e.Targets {
		c := t.Clone()
		c.UserPassword = ""
		out.Targets[i] = c
	}
	return out
}

// InvalidNameError reports a name outside the allowed pattern.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("environment name %q must match %s", e.Name, namePattern.String())
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// AlreadyExistingError reports a name that is already registered.
type AlreadyExistingError struct {
	Name string
}

func (e *AlreadyExistingError) Error() string {
	return fmt.Sprintf("environment %q already exists", e.Name)
}

func (e *AlreadyExistingError) Unwrap() error { return ErrAlreadyExisting }

// ValidateName checks name against the allowed identifier pattern.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}
