package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/RedouaeElalami/chutney/internal/history"
)

var summaryColumns = []string{
	"id", "scenario_id", "executed_at", "duration_ns", "status", "action_type",
	"info", "error", "environment", "user_name", "invocation_id", "dataset_json",
}

// ExecutionRepo is the append-only execution history table.
type ExecutionRepo struct {
	db *sql.DB
}

func (r *ExecutionRepo) Append(ctx context.Context, e history.Execution) (history.Summary, error) {
	var dataset any
	if e.Dataset != nil {
		s, err := marshalJSON(e.Dataset)
		if err != nil {
			return history.Summary{}, fmt.Errorf("encode dataset: %w", err)
		}
		dataset = s
	}
	res, err := exec(ctx, r.db, builder().
		Insert("executions").
		Columns("scenario_id", "executed_at", "duration_ns", "status", "action_type",
			"info", "error", "environment", "user_name", "invocation_id", "dataset_json", "report").
		Values(e.ScenarioID, ts(e.Time), int64(e.Duration), string(e.Status), e.ActionType,
			e.Info, e.Error, e.Environment, e.User, e.InvocationID, dataset, e.Report))
	if err != nil {
		return history.Summary{}, fmt.Errorf("insert execution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return history.Summary{}, fmt.Errorf("execution id: %w", err)
	}
	sum := e.Summary
	sum.ID = id
	return sum, nil
}

func (r *ExecutionRepo) ListByScenario(ctx context.Context, scenarioID string) ([]history.Summary, error) {
	rows, err := query(ctx, r.db, builder().
		Select(summaryColumns...).
		From("executions").
		Where(sq.Eq{"scenario_id": scenarioID}).
		OrderBy("id DESC"))
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	out := []history.Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *ExecutionRepo) GetSummary(ctx context.Context, id int64) (history.Summary, error) {
	row, err := queryRow(ctx, r.db, builder().
		Select(summaryColumns...).
		From("executions").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return history.Summary{}, err
	}
	sum, err := scanSummary(row)
	if noRows(err) {
		return history.Summary{}, history.ErrNotFound
	}
	return sum, err
}

func (r *ExecutionRepo) Get(ctx context.Context, scenarioID string, id int64) (history.Execution, error) {
	row, err := queryRow(ctx, r.db, builder().
		Select(append(summaryColumns, "report")...).
		From("executions").
		Where(sq.Eq{"id": id, "scenario_id": scenarioID}))
	if err != nil {
		return history.Execution{}, err
	}
	var (
		e      history.Execution
		report string
	)
	e.Summary, err = scanSummary(row, &report)
	if noRows(err) {
		return history.Execution{}, history.ErrNotFound
	}
	if err != nil {
		return history.Execution{}, err
	}
	e.Report = report
	return e, nil
}

// DeleteByIDs removes every listed execution in one statement. Unknown ids
// are ignored.
func (r *ExecutionRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := exec(ctx, r.db, builder().Delete("executions").Where(sq.Eq{"id": ids})); err != nil {
		return fmt.Errorf("delete executions: %w", err)
	}
	return nil
}

func scanSummary(s scanner, extra ...any) (history.Summary, error) {
	var (
		sum        history.Summary
		executedAt string
		durationNS int64
		status     string
		dataset    sql.NullString
	)
	dest := []any{
		&sum.ID, &sum.ScenarioID, &executedAt, &durationNS, &status, &sum.ActionType,
		&sum.Info, &sum.Error, &sum.Environment, &sum.User, &sum.InvocationID, &dataset,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return history.Summary{}, err
	}
	t, err := parseTS(executedAt)
	if err != nil {
		return history.Summary{}, fmt.Errorf("parse executed_at of %d: %w", sum.ID, err)
	}
	sum.Time = t
	sum.Duration = time.Duration(durationNS)
	sum.Status = history.Status(status)
	if dataset.Valid {
		sum.Dataset = &history.Dataset{}
		if err := unmarshalJSON(dataset, sum.Dataset); err != nil {
			return history.Summary{}, fmt.Errorf("decode dataset of %d: %w", sum.ID, err)
		}
	}
	return sum, nil
}
