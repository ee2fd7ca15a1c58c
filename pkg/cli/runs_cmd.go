package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	internaldb "duck-commerce/internal/db"
	"duck-commerce/internal/db/repository"
)

func newRunsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded ingestion runs",
	}
	cmd.AddCommand(newRunsListCmd(opts))
	cmd.AddCommand(newRunsShowCmd(opts))
	return cmd
}

// openRuns opens the metastore named by the resolved configuration.
func openRuns(cmd *cobra.Command, opts *rootOptions) (*repository.RunRepo, func(), error) {
	cfg, _, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	meta, err := internaldb.OpenMetastore(cfg.MetaDBPath)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRunRepo(meta.Write, meta.Read), func() { _ = meta.Close() }, nil
}

func newRunsListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent ingestion runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, closeFn, err := openRuns(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]runView, 0, len(list))
			for _, r := range list {
				views = append(views, storedRunView(r))
			}

			out := cmd.OutOrStdout()
			if printed, err := printStructured(out, opts.output, views); printed || err != nil {
				return err
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.ID,
					v.StartedAt.Local().Format("2006-01-02 15:04:05"),
					v.FinishedAt.Sub(v.StartedAt).Round(time.Millisecond).String(),
					strconv.Itoa(v.Loaded),
					strconv.Itoa(v.Skipped),
					strconv.Itoa(v.Failed),
				})
			}
			return printTable(out, []string{"ID", "STARTED", "DURATION", "LOADED", "SKIPPED", "FAILED"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultRunListLimit, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-file outcome of one ingestion run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, closeFn, err := openRuns(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := runs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := storedRunView(*run)

			out := cmd.OutOrStdout()
			if printed, err := printStructured(out, opts.output, view); printed || err != nil {
				return err
			}
			return printTable(out, fileHeaders, fileRows(view.Files))
		},
	}
}
