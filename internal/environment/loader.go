package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFile reads one environment definition from a YAML file.
func LoadFile(path string) (Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Environment{}, fmt.Errorf("read environment %s: %w", path, err)
	}
	var env Environment
	if err := yaml.Unmarshal(data, &env); err != nil {
		return Environment{}, fmt.Errorf("parse environment %s: %w", path, err)
	}
	return env, nil
}

// ImportDir force-creates every *.yaml / *.yml environment found in dir.
// Files that fail are reported together; the others are still imported.
func (r *Registry) ImportDir(ctx context.Context, dir string) (int, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, fmt.Errorf("scan %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	imported := 0
	var errs []error
	for _, p := range paths {
		env, err := LoadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := r.CreateEnvironment(ctx, env, true); err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", p, err))
			continue
		}
		imported++
	}
	r.log.InfoContext(ctx, "environments imported", slog.String("dir", dir), slog.Int("count", imported), slog.Int("failed", len(errs)))
	return imported, errors.Join(errs...)
}
