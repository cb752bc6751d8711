package action

import (
	"context"

	"github.com/RedouaeElalami/chutney/internal/target"
)

// Status is the outcome of one action execution.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// Result holds the outcome of executing a single action. It is a value and
// is never modified after the action returns it.
type Result struct {
	Status     Status `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Ok returns a successful result.
func Ok() Result { return Result{Status: StatusSuccess} }

// Ko returns a failed result carrying a one-line diagnostic.
func Ko(diagnostic string) Result {
	return Result{Status: StatusFailure, Diagnostic: diagnostic}
}

// Succeeded reports whether the result is a success.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// Action is the interface all action implementations must satisfy.
// An Action is built for one invocation, executed once, then discarded.
type Action interface {
	// Type returns the string key the action is registered under.
	Type() string
	// ValidateInputs checks required inputs without side effects.
	// An empty slice means the action may be executed.
	ValidateInputs() []string
	// Execute runs the action. Expected failures are reported in the
	// result, not as errors.
	Execute(ctx context.Context) Result
}

// Request carries everything a Factory needs to build an Action.
type Request struct {
	Inputs Inputs
	Target *target.Target
	Logger Logger
}

// Factory builds an Action for one invocation. It returns a
// ConfigurationError when an input or target property cannot be coerced.
type Factory func(req Request) (Action, error)
