package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/internal/report"
	"github.com/happyhackingspace/konu/internal/storage"
)

func (c *CLI) newReportCommand() *cobra.Command {
	var (
		outDir string
		schema bool
	)

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Aggregate a run by year, decade and topic and export CSV/JSON",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Report on the latest run
  konu report

  # Write the exports somewhere else
  konu report --out reports/1987

  # Print the JSON Schema of report.json
  konu report --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schema {
				data, err := report.Schema()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("out") {
				cfg.Report.OutDir = outDir
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			run, err := store.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			results, err := store.Results(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			terms, err := store.TopicTerms(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			docs, err := store.Articles(cmd.Context(), storage.Query{})
			if err != nil {
				return err
			}
			slog.Debug("Loaded run", "id", run.ID, "results", len(results), "articles", len(docs))

			r := cfg.Report
			rep, err := report.Build(docs, results, terms, report.Options{
				MinYear:    r.MinYear,
				BinLow:     r.BinLow,
				BinHigh:    r.BinHigh,
				BinWidth:   r.BinWidth,
				TopTerms:   r.TopTerms,
				TopicNames: r.TopicNames,
				Relabels:   r.Relabels,
			})
			if err != nil {
				return err
			}
			rep.RunID = run.ID

			paths, err := rep.WriteFiles(r.OutDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				slog.Info("Wrote", "path", p)
			}
			rep.Print(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&schema, "schema", false, "Print the JSON Schema of report.json and exit")
	return cmd
}
