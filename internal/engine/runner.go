package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/dataset"
	"github.com/RedouaeElalami/chutney/internal/history"
	"github.com/RedouaeElalami/chutney/internal/metrics"
	"github.com/RedouaeElalami/chutney/internal/target"
)

var ErrMissingEnvironment = errors.New("environment is required when a target is named")

type targetResolver interface {
	FindTarget(ctx context.Context, envName, targetName string) (target.Target, error)
}

type historyAppender interface {
	Append(ctx context.Context, e history.Execution) (history.Summary, error)
}

type datasetFinder interface {
	FindByID(ctx context.Context, id string) (dataset.DataSet, error)
}

// Invocation is one request to run an action.
type Invocation struct {
	ID          string        `json:"id,omitempty"`
	ActionType  string        `json:"action_type"`
	Environment string        `json:"environment,omitempty"`
	Target      string        `json:"target,omitempty"`
	ScenarioID  string        `json:"scenario_id,omitempty"`
	DatasetID   string        `json:"dataset_id,omitempty"`
	User        string        `json:"user,omitempty"`
	Inputs      action.Inputs `json:"inputs,omitempty"`
}

// Report is the outcome of one invocation, returned to the caller and
// stored as the execution report when the invocation names a scenario.
type Report struct {
	InvocationID string           `json:"invocation_id"`
	ActionType   string           `json:"action_type"`
	Environment  string           `json:"environment,omitempty"`
	Target       string           `json:"target,omitempty"`
	Status       action.Status    `json:"status"`
	Diagnostic   string           `json:"diagnostic,omitempty"`
	Logs         []action.LogLine `json:"logs"`
	StartedAt    time.Time        `json:"started_at"`
	DurationMs   int64            `json:"duration_ms"`
	ExecutionID  int64            `json:"execution_id,omitempty"`
}

// Runner builds, validates and executes actions. Targets are looked up on
// every run, so environment edits apply to the next invocation.
type Runner struct {
	registry *action.Registry
	targets  targetResolver
	history  historyAppender
	datasets datasetFinder
	log      *slog.Logger
	now      func() time.Time
}

func NewRunner(log *slog.Logger, reg *action.Registry, targets targetResolver, hist historyAppender, datasets datasetFinder) *Runner {
	return &Runner{
		registry: reg,
		targets:  targets,
		history:  hist,
		datasets: datasets,
		log:      log.With("service", "runner"),
		now:      time.Now,
	}
}

// Run executes inv. Errors are returned for anything that prevents the
// action from running: unknown type, missing target, configuration or
// validation failures. A failed send is a report with StatusFailure.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Report, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	factory, err := r.registry.Get(inv.ActionType)
	if err != nil {
		return nil, err
	}

	var tgt *target.Target
	if inv.Target != "" {
		if inv.Environment == "" {
			return nil, ErrMissingEnvironment
		}
		t, err := r.targets.FindTarget(ctx, inv.Environment, inv.Target)
		if err != nil {
			return nil, err
		}
		tgt = &t
	}

	var snapshot *history.Dataset
	if inv.DatasetID != "" {
		ds, err := r.datasets.FindByID(ctx, inv.DatasetID)
		if err != nil {
			return nil, err
		}
		snapshot = &history.Dataset{ID: ds.ID, Datatable: ds.Datatable, Constants: ds.Constants}
	}

	log := r.log.With(
		slog.String("action_type", inv.ActionType),
		slog.String("invocation_id", inv.ID),
	)
	rec := action.NewRecordingLogger(log)

	act, err := factory(action.Request{Inputs: inv.Inputs, Target: tgt, Logger: rec})
	if err != nil {
		metrics.ActionsExecuted.WithLabelValues(inv.ActionType, "error").Inc()
		return nil, err
	}
	if errs := act.ValidateInputs(); len(errs) > 0 {
		metrics.ActionsExecuted.WithLabelValues(inv.ActionType, "invalid").Inc()
		return nil, &action.ValidationError{Errors: errs}
	}

	start := r.now()
	res := act.Execute(ctx)
	elapsed := r.now().Sub(start)

	metrics.ActionsExecuted.WithLabelValues(inv.ActionType, strings.ToLower(string(res.Status))).Inc()
	metrics.ActionDuration.WithLabelValues(inv.ActionType).Observe(float64(elapsed.Milliseconds()))
	log.InfoContext(ctx, "action executed",
		slog.String("status", string(res.Status)),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)

	rep := &Report{
		InvocationID: inv.ID,
		ActionType:   inv.ActionType,
		Environment:  inv.Environment,
		Target:       inv.Target,
		Status:       res.Status,
		Diagnostic:   res.Diagnostic,
		Logs:         rec.Lines(),
		StartedAt:    start.UTC(),
		DurationMs:   elapsed.Milliseconds(),
	}

	if inv.ScenarioID != "" {
		// The record is kept even when the caller has stopped waiting.
		sum, err := r.record(context.WithoutCancel(ctx), inv, rep, elapsed, snapshot)
		if err != nil {
			log.ErrorContext(ctx, "execution not recorded", slog.String("scenario_id", inv.ScenarioID), slog.Any("error", err))
		} else {
			rep.ExecutionID = sum.ID
		}
	}
	return rep, nil
}

func (r *Runner) record(ctx context.Context, inv Invocation, rep *Report, elapsed time.Duration, ds *history.Dataset) (history.Summary, error) {
	body, err := json.Marshal(rep)
	if err != nil {
		return history.Summary{}, fmt.Errorf("encode report: %w", err)
	}
	status := history.StatusSuccess
	if rep.Status != action.StatusSuccess {
		status = history.StatusFailure
	}
	var info []string
	for _, l := range rep.Logs {
		if l.Level == "info" {
			info = append(info, l.Message)
		}
	}
	return r.history.Append(ctx, history.Execution{
		Summary: history.Summary{
			ScenarioID:   inv.ScenarioID,
			Time:         rep.StartedAt,
			Duration:     elapsed,
			Status:       status,
			ActionType:   inv.ActionType,
			Info:         strings.Join(info, "; "),
			Error:        rep.Diagnostic,
			Environment:  inv.Environment,
			User:         inv.User,
			InvocationID: inv.ID,
			Dataset:      ds,
		},
		Report: string(body),
	})
}
