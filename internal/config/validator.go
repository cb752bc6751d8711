package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/RedouaeElalami/chutney/internal/action/email"
)

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks the config for:
//   - Required fields and positive pool sizes
//   - Known log level and format
//   - Well-formed provider overrides
//   - An existing environments directory when one is configured
func Validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		errs = append(errs, "server.addr is required")
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		errs = append(errs, "database.path is required")
	}
	if !logLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", cfg.Log.Level))
	}
	if !logFormats[strings.ToLower(cfg.Log.Format)] {
		errs = append(errs, fmt.Sprintf("log.format %q must be json or text", cfg.Log.Format))
	}
	if cfg.Engine.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must be > 0 (got %d)", cfg.Engine.Workers))
	}
	if cfg.Engine.QueueDepth <= 0 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must be > 0 (got %d)", cfg.Engine.QueueDepth))
	}
	if cfg.Engine.InvocationTimeoutMs <= 0 {
		errs = append(errs, fmt.Sprintf("engine.invocation_timeout_ms must be > 0 (got %d)", cfg.Engine.InvocationTimeoutMs))
	}
	if cfg.SMTP.TimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("smtp.timeout_ms must be >= 0 (got %d)", cfg.SMTP.TimeoutMs))
	}
	if dir := cfg.Environments.Dir; dir != "" {
		if fi, err := os.Stat(dir); err != nil {
			errs = append(errs, fmt.Sprintf("environments.dir: %v", err))
		} else if !fi.IsDir() {
			errs = append(errs, fmt.Sprintf("environments.dir %s is not a directory", dir))
		}
	}

	labels := make([]string, 0, len(cfg.Providers))
	for label := range cfg.Providers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		p := cfg.Providers[label]
		if strings.TrimSpace(label) == "" {
			errs = append(errs, "providers: label must not be empty")
			continue
		}
		if strings.TrimSpace(p.TrustedHost) == "" {
			errs = append(errs, fmt.Sprintf("providers.%s: trusted_host is required", label))
		}
		if _, ok := email.ParseTLSVersion(p.MinTLS); !ok {
			errs = append(errs, fmt.Sprintf("providers.%s: unknown min_tls %q", label, p.MinTLS))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ProviderTable returns the built-in provider table extended with the
// configured providers. The config is expected to have passed Validate.
func (c *Config) ProviderTable() email.Providers {
	extra := make(email.Providers, len(c.Providers))
	for label, p := range c.Providers {
		v, _ := email.ParseTLSVersion(p.MinTLS)
		extra[label] = email.Provider{TrustedHost: p.TrustedHost, MinTLSVersion: v}
	}
	return email.DefaultProviders().With(extra)
}
