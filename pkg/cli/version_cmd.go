package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			info := map[string]string{"version": version, "commit": commit}
			if printed, err := printStructured(out, opts.output, info); printed || err != nil {
				return err
			}
			fmt.Fprintf(out, "duckc %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
