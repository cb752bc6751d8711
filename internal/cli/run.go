package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Environment string
	Target      string
	ScenarioID  string
	DatasetID   string
	User        string
	InputsJSON  string
	Inputs      []string
}

func newRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <action-type>",
		Short: "Run one action and print its report",
		Long: `Run one action in-process and print its report.

The command exits 1 when the action reports FAILURE and 2 when it cannot
run at all (unknown type, missing target, invalid inputs).

Example:
  chutney run send-mail --env STAGING --target mail \
    --input to=ops@example.com --input subject=Nightly --scenario nightly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Environment, "env", "e", "", "environment holding the target")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "target name inside the environment")
	cmd.Flags().StringVar(&opts.ScenarioID, "scenario", "", "record the execution under this scenario id")
	cmd.Flags().StringVar(&opts.DatasetID, "dataset", "", "dataset id to snapshot into the execution")
	cmd.Flags().StringVar(&opts.User, "user", "", "user recorded on the execution")
	cmd.Flags().StringVar(&opts.InputsJSON, "inputs", "", "action inputs as a JSON object")
	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "single input as key=value (repeatable, wins over --inputs)")

	return cmd
}

func runAction(ctx context.Context, opts *RunOptions, actionType string, out io.Writer) error {
	inputs, err := parseInputs(opts.InputsJSON, opts.Inputs)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}

	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if n, err := a.ImportEnvironments(ctx); err != nil {
		a.Log.Warn("environment import incomplete", slog.Int("imported", n), slog.Any("error", err))
	}

	rep, err := a.Engine.RunSync(ctx, engine.Invocation{
		ActionType:  actionType,
		Environment: opts.Environment,
		Target:      opts.Target,
		ScenarioID:  opts.ScenarioID,
		DatasetID:   opts.DatasetID,
		User:        opts.User,
		Inputs:      inputs,
	})
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}

	if opts.Format == "json" {
		if err := writeJSON(out, rep); err != nil {
			return err
		}
	} else {
		printReport(out, rep)
	}
	if rep.Status != action.StatusSuccess {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%s failed: %s", actionType, rep.Diagnostic)}
	}
	return nil
}

// parseInputs merges a JSON object with key=value pairs; pairs win.
func parseInputs(raw string, pairs []string) (action.Inputs, error) {
	inputs := action.Inputs{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
			return nil, fmt.Errorf("invalid --inputs JSON: %w", err)
		}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --input %q: want key=value", p)
		}
		inputs[strings.TrimSpace(k)] = v
	}
	return inputs, nil
}

func printReport(w io.Writer, rep *engine.Report) {
	fmt.Fprintf(w, "%s %s (%d ms)\n", rep.ActionType, rep.Status, rep.DurationMs)
	if rep.Diagnostic != "" {
		fmt.Fprintf(w, "  diagnostic: %s\n", rep.Diagnostic)
	}
	for _, l := range rep.Logs {
		fmt.Fprintf(w, "  [%s] %s\n", l.Level, l.Message)
	}
	if rep.ExecutionID != 0 {
		fmt.Fprintf(w, "  execution: %d\n", rep.ExecutionID)
	}
}
