package environment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/RedouaeElalami/chutney/internal/metrics"
	"github.com/RedouaeElalami/chutney/internal/target"
)

type environmentRepo interface {
	FindByName(ctx context.Context, name string) (Environment, error)
	ListNames(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]Environment, error)
	Save(ctx context.Context, env Environment) error
	Delete(ctx context.Context, name string) error
	// Rename atomically replaces oldName with env.
	Rename(ctx context.Context, oldName string, env Environment) error
}

// Registry validates and persists environment definitions. Concurrent writes
// on the same name are linearized by the repository.
type Registry struct {
	repo environmentRepo
	log  *slog.Logger
}

// NewRegistry creates a Registry over repo.
func NewRegistry(log *slog.Logger, repo environmentRepo) *Registry {
	return &Registry{repo: repo, log: log.With("service", "environment")}
}

// CreateEnvironment registers env. An already registered name is an error
// unless force is set, in which case the stored definition is replaced.
// The accepted value is env, unchanged.
func (r *Registry) CreateEnvironment(ctx context.Context, env Environment, force bool) (Environment, error) {
	if err := ValidateName(env.Name); err != nil {
		return Environment{}, err
	}
	exists, err := r.exists(ctx, env.Name)
	if err != nil {
		return Environment{}, err
	}
	if exists && !force {
		return Environment{}, &AlreadyExistingError{Name: env.Name}
	}
	if err := r.repo.Save(ctx, env); err != nil {
		return Environment{}, fmt.Errorf("save environment %s: %w", env.Name, err)
	}

	op := "create"
	if exists {
		op = "replace"
	}
	metrics.EnvironmentsSaved.WithLabelValues(op).Inc()
	r.log.InfoContext(ctx, "environment saved", slog.String("name", env.Name), slog.String("operation", op))
	return env, nil
}

// UpdateEnvironment replaces the environment stored as oldName with newEnv.
// Targets are carried over from the previous definition when newEnv has none.
// Renaming onto another registered name is refused.
func (r *Registry) UpdateEnvironment(ctx context.Context, oldName string, newEnv Environment) (Environment, error) {
	prev, err := r.repo.FindByName(ctx, oldName)
	if err != nil {
		return Environment{}, fmt.Errorf("find environment %s: %w", oldName, err)
	}
	if err := ValidateName(newEnv.Name); err != nil {
		return Environment{}, err
	}
	renamed := newEnv.Name != prev.Name
	if renamed {
		exists, err := r.exists(ctx, newEnv.Name)
		if err != nil {
			return Environment{}, err
		}
		if exists {
			return Environment{}, &AlreadyExistingError{Name: newEnv.Name}
		}
	}
	if newEnv.Targets == nil {
		newEnv.Targets = prev.Targets
	} else {
		newEnv.Targets = keepPasswords(prev, newEnv.Targets)
	}

	if renamed {
		if err := r.repo.Rename(ctx, prev.Name, newEnv); err != nil {
			return Environment{}, fmt.Errorf("rename environment %s to %s: %w", prev.Name, newEnv.Name, err)
		}
	} else if err := r.repo.Save(ctx, newEnv); err != nil {
		return Environment{}, fmt.Errorf("save environment %s: %w", newEnv.Name, err)
	}

	metrics.EnvironmentsSaved.WithLabelValues("update").Inc()
	r.log.InfoContext(ctx, "environment updated", slog.String("old_name", oldName), slog.String("name", newEnv.Name))
	return newEnv, nil
}

// GetEnvironment returns the environment named name.
func (r *Registry) GetEnvironment(ctx context.Context, name string) (Environment, error) {
	env, err := r.repo.FindByName(ctx, name)
	if err != nil {
		return Environment{}, fmt.Errorf("find environment %s: %w", name, err)
	}
	return env, nil
}

// ListEnvironments returns every environment ordered by name.
func (r *Registry) ListEnvironments(ctx context.Context) ([]Environment, error) {
	envs, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	return envs, nil
}

// DeleteEnvironment removes the environment named name.
func (r *Registry) DeleteEnvironment(ctx context.Context, name string) error {
	if err := r.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete environment %s: %w", name, err)
	}
	r.log.InfoContext(ctx, "environment deleted", slog.String("name", name))
	return nil
}

// FindTarget reads the current definition of a target. Nothing is cached:
// each call sees the latest stored environment.
func (r *Registry) FindTarget(ctx context.Context, envName, targetName string) (target.Target, error) {
	env, err := r.GetEnvironment(ctx, envName)
	if err != nil {
		return target.Target{}, err
	}
	t, ok := env.Target(targetName)
	if !ok {
		return target.Target{}, fmt.Errorf("%w: %s in environment %s", ErrTargetNotFound, targetName, envName)
	}
	return t, nil
}

func (r *Registry) exists(ctx context.Context, name string) (bool, error) {
	names, err := r.repo.ListNames(ctx)
	if err != nil {
		return false, fmt.Errorf("list environment names: %w", err)
	}
	return slices.Contains(names, name), nil
}

// keepPasswords fills the blank passwords of targets with the stored ones of
// the same name, so an edited copy of a secret-free response does not wipe
// credentials.
func keepPasswords(prev Environment, targets []target.Target) []target.Target {
	out := slices.Clone(targets)
	for i, t := range out {
		if t.UserPassword != "" {
			continue
		}
		if old, ok := prev.Target(t.Name); ok {
			out[i].UserPassword = old.UserPassword
		}
	}
	return out
}
