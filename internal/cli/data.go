package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/storage"
)

func (c *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect and export the article corpus",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	statsCmd := &cobra.Command{
		Use:     "stats",
		Short:   "Show article counts per decade and text coverage",
		Example: `  konu data stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.CountArticles(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Printf("No articles in %s, run konu-collect search first\n", store.Path())
				return nil
			}
			docs, err := store.Articles(cmd.Context(), storage.Query{})
			if err != nil {
				return err
			}
			printStats(os.Stdout, docs)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export article metadata and text to CSV",
		Args:  cobra.ExactArgs(1),
		Example: `  konu data export articles.csv
  konu data export - | head`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			docs, err := store.Articles(cmd.Context(), storage.Query{})
			if err != nil {
				return err
			}

			if args[0] == "-" {
				return writeArticlesCSV(os.Stdout, docs)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := writeArticlesCSV(f, docs); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("Exported articles", "path", args[0], "count", len(docs))
			return nil
		},
	}

	dataCmd.AddCommand(statsCmd, exportCmd)
	return dataCmd
}

func printStats(w io.Writer, docs []corpus.Document) {
	decades := map[int]int{}
	var abstractWords, leadWords []float64
	scraped, prepared := 0, 0
	for _, d := range docs {
		if dec, err := d.Decade(); err == nil {
			decades[dec]++
		}
		abstractWords = append(abstractWords, float64(d.AbstractWords()))
		leadWords = append(leadWords, float64(d.LeadWords()))
		if d.Text != "" {
			scraped++
		}
		if d.ModelText != "" {
			prepared++
		}
	}

	fmt.Fprintf(w, "Articles: %d  scraped: %d  prepared: %d\n", len(docs), scraped, prepared)
	if len(docs) == 0 {
		return
	}
	fmt.Fprintf(w, "Mean words: abstract %.1f  lead paragraph %.1f\n",
		stat.Mean(abstractWords, nil), stat.Mean(leadWords, nil))

	fmt.Fprintf(w, "\n%8s  %7s\n", "decade", "count")
	for _, dec := range slices.Sorted(maps.Keys(decades)) {
		fmt.Fprintf(w, "%8d  %7d\n", dec, decades[dec])
	}
}

func writeArticlesCSV(w io.Writer, docs []corpus.Document) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "pub_date", "headline", "section", "news_desk", "type_of_material",
		"word_count", "web_url", "subjects", "locations", "abstract", "lead_paragraph", "text"})
	for _, d := range docs {
		_ = cw.Write([]string{
			d.ID, d.PubDate, d.Headline, d.Section, d.NewsDesk, d.TypeOfMaterial,
			strconv.Itoa(d.WordCount), d.WebURL,
			strings.Join(d.Subjects, "; "), strings.Join(d.Locations, "; "),
			d.Abstract, d.LeadParagraph, d.Text,
		})
	}
	cw.Flush()
	return cw.Error()
}
