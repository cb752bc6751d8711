package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RedouaeElalami/chutney/internal/app"
)

func newVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version":    app.Version,
					"commit":     app.Commit,
					"build_time": app.BuildTime,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "chutney "+app.BuildVersion())
			return nil
		},
	}
}
