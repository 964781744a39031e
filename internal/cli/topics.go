package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/internal/config"
	"github.com/happyhackingspace/konu/internal/report"
	"github.com/happyhackingspace/konu/topic"
)

func (c *CLI) newTopicsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "topics [run-id | model.json]",
		Short: "Show the top terms of every topic of a run (default: latest) or a saved model",
		Args:  cobra.MaximumNArgs(1),
		Example: `  konu topics
  konu topics 0b6f1d2e-8f0c-4a8e-9a43-1b1e6c3f7d10 --json

  # A model written by "konu model model.json"
  konu topics model.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && isFile(args[0]) {
				cfg, err := config.Load(c.configPath)
				if err != nil {
					return err
				}
				model, err := topic.LoadModel(args[0])
				if err != nil {
					return err
				}
				terms := make([][]topic.TermWeight, model.K)
				for k := range terms {
					terms[k] = model.TopTerms(k, cfg.Report.TopTerms)
				}
				if asJSON {
					output, _ := json.MarshalIndent(terms, "", "  ")
					fmt.Println(string(output))
					return nil
				}
				fmt.Printf("Model %s (%s, k=%d, seed=%d, %d documents, %d terms)\n",
					args[0], model.Strategy, model.K, model.Seed, model.NumDocuments(), len(model.Terms))
				printTopics(os.Stdout, terms, cfg.Report.TopicNames, cfg.Report.Relabels)
				return nil
			}

			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			run, err := store.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			terms, err := store.TopicTerms(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if asJSON {
				output, _ := json.MarshalIndent(terms, "", "  ")
				fmt.Println(string(output))
				return nil
			}
			fmt.Printf("Run %s (%s, k=%d, seed=%d, %d terms, %s)\n",
				run.ID, run.Strategy, run.K, run.Seed, run.VocabularySize, run.CreatedAt.Format("2006-01-02 15:04"))
			printTopics(os.Stdout, terms, cfg.Report.TopicNames, cfg.Report.Relabels)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw terms and weights as JSON")
	return cmd
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func printTopics(w io.Writer, terms [][]topic.TermWeight, names []string, relabels map[string]string) {
	for k, tw := range terms {
		words := make([]string, len(tw))
		for i, t := range tw {
			words[i] = report.Relabel(t.Term, relabels)
		}
		fmt.Fprintf(w, "%3d  %-20s %s\n", k, report.TopicName(names, k), strings.Join(words, ", "))
	}
}
