package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RedouaeElalami/chutney/internal/app"
)

func newEnvCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage stored environments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <dir>",
		Short: "Import every *.yaml and *.yml environment in dir, replacing existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importEnvironments(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored environments and their targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEnvironments(cmd.Context(), opts, cmd.OutOrStdout())
		},
	})
	return cmd
}

func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	loader, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, loader.Config(), log, opts.transport)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Err: err}
	}
	return a, nil
}

func importEnvironments(ctx context.Context, opts *RootOptions, dir string, out io.Writer) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Environments.ImportDir(ctx, dir)
	if opts.Format == "json" {
		res := map[string]any{"imported": n}
		if err != nil {
			res["error"] = err.Error()
		}
		if werr := writeJSON(out, res); werr != nil {
			return werr
		}
	} else {
		fmt.Fprintf(out, "imported %d environment(s) from %s\n", n, dir)
	}
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	return nil
}

func listEnvironments(ctx context.Context, opts *RootOptions, out io.Writer) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	envs, err := a.Environments.ListEnvironments(ctx)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	if opts.Format == "json" {
		for i := range envs {
			envs[i] = envs[i].WithoutSecrets()
		}
		return writeJSON(out, envs)
	}
	for _, env := range envs {
		fmt.Fprintf(out, "%s\t%d target(s)\t%s\n", env.Name, len(env.Targets), env.Description)
	}
	return nil
}
