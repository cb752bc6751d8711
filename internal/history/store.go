package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RedouaeElalami/chutney/internal/metrics"
)

type executionRepo interface {
	Append(ctx context.Context, e Execution) (Summary, error)
	ListByScenario(ctx context.Context, scenarioID string) ([]Summary, error)
	GetSummary(ctx context.Context, id int64) (Summary, error)
	Get(ctx context.Context, scenarioID string, id int64) (Execution, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// Store is the append-only execution history. Callers are expected to have
// passed an authorization check before reaching it.
type Store struct {
	repo executionRepo
	log  *slog.Logger
}

// NewStore creates a Store over repo.
func NewStore(log *slog.Logger, repo executionRepo) *Store {
	return &Store{repo: repo, log: log.With("service", "history")}
}

// Append records a new execution and returns its summary.
func (s *Store) Append(ctx context.Context, e Execution) (Summary, error) {
	if e.ScenarioID == "" {
		return Summary{}, fmt.Errorf("append execution: scenario id is required")
	}
	sum, err := s.repo.Append(ctx, e)
	if err != nil {
		return Summary{}, fmt.Errorf("append execution: %w", err)
	}
	metrics.HistoryAppended.WithLabelValues(string(sum.Status)).Inc()
	s.log.DebugContext(ctx, "execution recorded",
		slog.Int64("execution_id", sum.ID),
		slog.String("scenario_id", sum.ScenarioID),
		slog.String("status", string(sum.Status)),
	)
	return sum, nil
}

// GetExecutions returns the summaries of a scenario, newest first.
func (s *Store) GetExecutions(ctx context.Context, scenarioID string) ([]Summary, error) {
	out, err := s.repo.ListByScenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list executions of %s: %w", scenarioID, err)
	}
	return out, nil
}

// GetExecutionSummary returns one summary, without redaction.
func (s *Store) GetExecutionSummary(ctx context.Context, id int64) (Summary, error) {
	sum, err := s.repo.GetSummary(ctx, id)
	if err != nil {
		return Summary{}, fmt.Errorf("get execution summary %d: %w", id, err)
	}
	return sum, nil
}

// GetExecution returns the full record with the empty-dataset redaction applied.
func (s *Store) GetExecution(ctx context.Context, scenarioID string, id int64) (Execution, error) {
	e, err := s.repo.Get(ctx, scenarioID, id)
	if err != nil {
		return Execution{}, fmt.Errorf("get execution %d: %w", id, err)
	}
	return Redact(e), nil
}

// DeleteExecutions removes every execution whose id is in ids.
func (s *Store) DeleteExecutions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.DeleteByIDs(ctx, dedupe(ids)); err != nil {
		return fmt.Errorf("delete executions: %w", err)
	}
	s.log.InfoContext(ctx, "executions deleted", slog.Int("count", len(ids)))
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
