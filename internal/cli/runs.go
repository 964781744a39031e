package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/internal/storage"
)

func (c *CLI) newRunsCommand() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored modeling runs, latest first",
		Example: `  konu runs
  konu runs rm 0b6f1d2e-8f0c-4a8e-9a43-1b1e6c3f7d10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <run-id>...",
		Short: "Delete runs with their results and topic terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				slog.Info("Deleted run", "id", id)
			}
			return nil
		},
	}

	runsCmd.AddCommand(rmCmd)
	return runsCmd
}

func printRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs yet, see `konu model`")
		return
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-8s  %3s  %20s  %6s\n", "id", "created", "strategy", "k", "seed", "terms")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-8s  %3d  %20d  %6d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Strategy, r.K, r.Seed, r.VocabularySize)
	}
}
