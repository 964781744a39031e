package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu"
	"github.com/happyhackingspace/konu/internal/storage"
	"github.com/happyhackingspace/konu/topic"
)

func (c *CLI) newModelCommand() *cobra.Command {
	var (
		strategy string
		topics   int
		seed     uint64
		minDF    float64
		maxDF    float64
		ngramMax int
	)

	cmd := &cobra.Command{
		Use:   "model [modelfile]",
		Short: "Fit a topic model on the prepared articles and store the run",
		Args:  cobra.MaximumNArgs(1),
		Example: `  konu model
  konu model --strategy lda --topics 5 --seed 42
  konu model model.json --min-df 0.02 --ngram-max 1 -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			flags := cmd.Flags()
			if flags.Changed("strategy") {
				cfg.Model.Strategy = strategy
			}
			if flags.Changed("topics") {
				cfg.Model.Topics = topics
			}
			if flags.Changed("seed") {
				cfg.Model.Seed = seed
			}
			if flags.Changed("min-df") {
				cfg.Model.MinDF = minDF
			}
			if flags.Changed("max-df") {
				cfg.Model.MaxDF = maxDF
			}
			if flags.Changed("ngram-max") {
				cfg.Model.NgramRange[1] = ngramMax
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Model.Seed == 0 {
				cfg.Model.Seed = uint64(time.Now().UnixNano())
				slog.Info("No seed given, using a random one", "seed", cfg.Model.Seed)
			}

			runCfg, err := cfg.Model.Pipeline()
			if err != nil {
				return err
			}
			docs, err := store.Articles(cmd.Context(), storage.Query{Prepared: true})
			if err != nil {
				return err
			}

			slog.Info("Fitting topic model", "strategy", runCfg.Strategy, "topics", runCfg.Topics,
				"articles", len(docs), "stop_words", len(runCfg.StopWords))
			start := time.Now()
			res, err := konu.Run(docs, runCfg)
			if err != nil {
				return err
			}
			slog.Debug("Fitting completed", "duration", time.Since(start), "vocabulary", res.VocabularySize)

			id, err := store.SaveRun(cmd.Context(), res, runCfg, cfg.Report.TopTerms)
			if err != nil {
				return err
			}
			slog.Info("Run saved", "id", id)

			if len(args) == 1 {
				if err := topic.SaveModel(res.Model, args[0]); err != nil {
					return err
				}
				slog.Info("Model saved", "path", args[0])
			}

			fmt.Printf("Run %s: %d articles, %d terms\n", id, len(res.Documents), res.VocabularySize)
			printTopics(os.Stdout, res.TopTerms(cfg.Report.TopTerms), cfg.Report.TopicNames, cfg.Report.Relabels)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Topic model: nmf or lda (default from config)")
	cmd.Flags().IntVar(&topics, "topics", 0, "Number of topics (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one and logs it)")
	cmd.Flags().Float64Var(&minDF, "min-df", 0, "Minimum document frequency (proportion if <= 1)")
	cmd.Flags().Float64Var(&maxDF, "max-df", 0, "Maximum document frequency (proportion if <= 1)")
	cmd.Flags().IntVar(&ngramMax, "ngram-max", 0, "Longest n-gram in the vocabulary")
	return cmd
}
