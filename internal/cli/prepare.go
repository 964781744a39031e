package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu"
	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/storage"
)

func (c *CLI) newPrepareCommand() *cobra.Command {
	var lemmatizer string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Clean and lemmatize the scraped article bodies",
		Example: `  konu prepare
  konu prepare --lemmatizer snowball -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("lemmatizer") {
				cfg.Prepare.Lemmatizer = lemmatizer
			}

			all, err := store.Articles(cmd.Context(), storage.Query{})
			if err != nil {
				return err
			}
			docs := corpus.Filter(all, cfg.Collect.MaterialTypes)
			slog.Info("Preparing articles", "stored", len(all), "eligible", len(docs), "lemmatizer", cfg.Prepare.Lemmatizer)

			start := time.Now()
			p, err := konu.NewPreparer(cfg.Prepare.Lemmatizer)
			if err != nil {
				return err
			}
			prepared, err := p.Prepare(docs)
			if err != nil {
				return err
			}
			slog.Debug("Preparation completed", "duration", time.Since(start))

			if err := store.UpdateDerived(cmd.Context(), withCleared(all, prepared)); err != nil {
				return err
			}
			slog.Info("Prepared articles", "kept", len(prepared), "dropped", len(all)-len(prepared))
			return nil
		},
	}

	cmd.Flags().StringVar(&lemmatizer, "lemmatizer", "", "Lemmatizer: dictionary or snowball (default from config)")
	return cmd
}

// withCleared returns prepared plus every other stored article with its
// derived text emptied, so articles dropped by this pass leave no stale text.
func withCleared(all, prepared []corpus.Document) []corpus.Document {
	kept := make(map[string]bool, len(prepared))
	for _, d := range prepared {
		kept[d.ID] = true
	}
	out := append([]corpus.Document(nil), prepared...)
	for _, d := range all {
		if kept[d.ID] || (d.SentimentText == "" && d.ModelText == "") {
			continue
		}
		d.SentimentText, d.ModelText = "", ""
		out = append(out, d)
	}
	return out
}
