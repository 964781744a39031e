package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/internal/config"
	"github.com/happyhackingspace/konu/internal/stopwords"
)

func (c *CLI) newStopwordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stopwords [word...]",
		Short: "Show the stop-word sources, or which sources exclude the given words",
		Example: `  # Size of each source
  konu stopwords

  # Why is "parade" missing from every topic?
  konu stopwords parade gay`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			set, err := cfg.Model.StopWordSet()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				printStopwordSources(cmd.OutOrStdout(), set)
				return nil
			}
			explainStopwords(cmd.OutOrStdout(), set, args)
			return nil
		},
	}
}

func printStopwordSources(w io.Writer, set *stopwords.Set) {
	counts := map[string]int{}
	for _, word := range set.Words() {
		for _, src := range set.Sources(word) {
			counts[src]++
		}
	}
	fmt.Fprintf(w, "%d stop words\n", set.Len())
	for _, src := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "  %-24s %6d\n", src, counts[src])
	}
}

func explainStopwords(w io.Writer, set *stopwords.Set, words []string) {
	for _, word := range words {
		if !set.Contains(word) {
			fmt.Fprintf(w, "%-20s kept\n", word)
			continue
		}
		fmt.Fprintf(w, "%-20s stop word (%s)\n", word, strings.Join(set.Sources(word), ", "))
	}
}
