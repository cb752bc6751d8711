package history

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("execution not found")

// Status of a past execution.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Dataset is the input data snapshot an execution ran with.
type Dataset struct {
	ID        string              `json:"id,omitempty"`
	Datatable []map[string]string `json:"datatable,omitempty"`
	Constants map[string]string   `json:"constants,omitempty"`
}

// Empty reports whether the dataset carries nothing worth showing.
func (d Dataset) Empty() bool {
	return d.ID == "" && len(d.Datatable) == 0 && len(d.Constants) == 0
}

// Summary is the lightweight view of one execution.
type Summary struct {
	ID           int64         `json:"id"`
	ScenarioID   string        `json:"scenario_id"`
	Time         time.Time     `json:"time"`
	Duration     time.Duration `json:"duration"`
	Status       Status        `json:"status"`
	ActionType   string        `json:"action_type"`
	Info         string        `json:"info,omitempty"`
	Error        string        `json:"error,omitempty"`
	Environment  string        `json:"environment,omitempty"`
	User         string        `json:"user,omitempty"`
	InvocationID string        `json:"invocation_id,omitempty"`
	Dataset      *Dataset      `json:"dataset,omitempty"`
}

// Execution is the full persisted record of one past execution.
type Execution struct {
	Summary
	Report string `json:"report"`
}

// Redact returns a copy of e with an empty dataset removed. The dataset is
// dropped only when it has no id, no datatable rows and no constants; every
// other field is carried over unchanged. e itself is never modified.
func Redact(e Execution) Execution {
	if e.Dataset == nil || !e.Dataset.Empty() {
		return e
	}
	out := e
	out.Dataset = nil
	return out
}
