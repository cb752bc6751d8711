package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/RedouaeElalami/chutney/internal/action/email"
	"github.com/RedouaeElalami/chutney/internal/app"
	"github.com/RedouaeElalami/chutney/internal/config"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // command completed and any action succeeded
	ExitFailure      = 1 // action ran and reported FAILURE
	ExitCommandError = 2 // bad flags, config, storage or inputs
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"

	// transport replaces SMTP delivery; nil sends for real.
	transport email.Transport
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the chutney CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chutney",
		Short: "Chutney action runner",
		Long:  "Runs email actions against environment targets and records their executions per scenario.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (empty: environment only)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newEnvCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

// loadConfig reads the config and installs the process logger.
func loadConfig(opts *RootOptions) (*config.Loader, *slog.Logger, error) {
	loader, err := config.NewLoader(opts.ConfigPath, slog.Default())
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Err: err}
	}
	return loader, app.NewLogger(loader.Config().Log), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
