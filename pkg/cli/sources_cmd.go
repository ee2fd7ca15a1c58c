package cli

import (
	"github.com/spf13/cobra"

	"duck-commerce/internal/domain"
)

// sourcesManifest mirrors the SOURCES_FILE layout so yaml output can be
// saved and edited as a manifest.
type sourcesManifest struct {
	Sources []domain.SourceFile `json:"sources" yaml:"sources"`
}

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Print the source files ingestion will load",
		Long: `Print the resolved source list: the SOURCES_FILE manifest when set, the built-in
dataset otherwise. "duckc sources -o yaml" produces a manifest to start from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			files, err := cfg.Sources()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printed, err := printStructured(out, opts.output, sourcesManifest{Sources: files}); printed || err != nil {
				return err
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{f.FileName, f.Table})
			}
			return printTable(out, []string{"FILE", "TABLE"}, rows)
		},
	}
	cmd.Flags().String("sources-file", "", "YAML manifest of source files (overrides SOURCES_FILE)")
	return cmd
}
