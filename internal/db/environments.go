package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/RedouaeElalami/chutney/internal/environment"
	"github.com/RedouaeElalami/chutney/internal/target"
)

// EnvironmentRepo persists environments with their targets as a JSON column.
type EnvironmentRepo struct {
	db *sql.DB
}

func (r *EnvironmentRepo) FindByName(ctx context.Context, name string) (environment.Environment, error) {
	row, err := queryRow(ctx, r.db, builder().
		Select("name", "description", "targets_json").
		From("environments").
		Where(sq.Eq{"name": name}))
	if err != nil {
		return environment.Environment{}, err
	}
	env, err := scanEnvironment(row)
	if noRows(err) {
		return environment.Environment{}, environment.ErrNotFound
	}
	if err != nil {
		return environment.Environment{}, fmt.Errorf("find environment: %w", err)
	}
	return env, nil
}

func (r *EnvironmentRepo) ListNames(ctx context.Context) ([]string, error) {
	rows, err := query(ctx, r.db, builder().Select("name").From("environments").OrderBy("name ASC"))
	if err != nil {
		return nil, fmt.Errorf("list environment names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan environment name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *EnvironmentRepo) List(ctx context.Context) ([]environment.Environment, error) {
	rows, err := query(ctx, r.db, builder().
		Select("name", "description", "targets_json").
		From("environments").
		OrderBy("name ASC"))
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	defer rows.Close()

	out := []environment.Environment{}
	for rows.Next() {
		env, err := scanEnvironment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		out = append(out, env)
	}
	return out, rows.Err()
}

// Save inserts env or replaces the row with the same name.
func (r *EnvironmentRepo) Save(ctx context.Context, env environment.Environment) error {
	ins, err := insertEnvironment(env)
	if err != nil {
		return err
	}
	_, err = exec(ctx, r.db, ins.Suffix(`ON CONFLICT(name) DO UPDATE SET
	description=excluded.description,
	targets_json=excluded.targets_json,
	updated_at=excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("upsert environment: %w", err)
	}
	return nil
}

// Rename replaces the row named oldName with env in one transaction. Nothing
// changes when oldName is missing or env.Name is already stored.
func (r *EnvironmentRepo) Rename(ctx context.Context, oldName string, env environment.Environment) error {
	ins, err := insertEnvironment(env)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := exec(ctx, tx, builder().Delete("environments").Where(sq.Eq{"name": oldName}))
	if err != nil {
		return fmt.Errorf("delete environment %s: %w", oldName, err)
	}
	if err := rowsAffected(res, environment.ErrNotFound); err != nil {
		return err
	}
	if _, err := exec(ctx, tx, ins); err != nil {
		return fmt.Errorf("insert environment %s: %w", env.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rename: %w", err)
	}
	return nil
}

func insertEnvironment(env environment.Environment) (sq.InsertBuilder, error) {
	targets := env.Targets
	if targets == nil {
		targets = []target.Target{}
	}
	targetsJSON, err := marshalJSON(targets)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("encode targets: %w", err)
	}
	return builder().
		Insert("environments").
		Columns("name", "description", "targets_json", "updated_at").
		Values(env.Name, env.Description, targetsJSON, ts(time.Now())), nil
}

func (r *EnvironmentRepo) Delete(ctx context.Context, name string) error {
	res, err := exec(ctx, r.db, builder().Delete("environments").Where(sq.Eq{"name": name}))
	if err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	return rowsAffected(res, environment.ErrNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEnvironment(s scanner) (environment.Environment, error) {
	var (
		env         environment.Environment
		targetsJSON sql.NullString
	)
	if err := s.Scan(&env.Name, &env.Description, &targetsJSON); err != nil {
		return environment.Environment{}, err
	}
	if err := unmarshalJSON(targetsJSON, &env.Targets); err != nil {
		return environment.Environment{}, fmt.Errorf("decode targets of %s: %w", env.Name, err)
	}
	if len(env.Targets) == 0 {
		env.Targets = nil
	}
	return env, nil
}
