package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"duck-commerce/internal/app"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load every source file into the DuckDB store",
		Long: `Resolve each configured source file, parse it and replace raw.<table> in the
DuckDB store. Exits non-zero when any file was skipped or failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			report, err := app.RunIngestion(cmd.Context(), app.Deps{Cfg: cfg, Logger: logger})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			view := reportView(report)
			printed, err := printStructured(out, opts.output, view)
			if err != nil {
				return err
			}
			if !printed {
				if err := printTable(out, fileHeaders, fileRows(view.Files)); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nrun %s: %s\n", report.RunID, report.Summary())
			}

			if !report.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Dataset provider: local, s3, gcs or azure (overrides DATASET_SOURCE)")
	cmd.Flags().String("dataset-dir", "", "Directory for the local provider (overrides DATASET_DIR)")
	cmd.Flags().String("sources-file", "", "YAML manifest of source files (overrides SOURCES_FILE)")
	cmd.Flags().Bool("cleanup", false, "Remove the dataset cache after ingestion (overrides INGEST_CLEANUP)")
	return cmd
}
