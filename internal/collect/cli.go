// Package collect builds the article corpus: metadata from the Article
// Search API and body text scraped from each article page.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/config"
	"github.com/happyhackingspace/konu/internal/storage"
)

// CLI encapsulates the konu-collect command-line interface.
type CLI struct {
	version    string
	verbose    bool
	silent     bool
	configPath string
	dbPath     string
	rootCmd    *cobra.Command
}

// New builds the konu-collect command tree.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "konu-collect",
		Short:         "Collect news articles into the konu corpus database",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initLogging()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Silent mode")
	flags.StringVar(&c.configPath, "config", "", "Config file (default konu.toml if present)")
	flags.StringVar(&c.dbPath, "db", "", "Database path (overrides config)")

	c.rootCmd.AddCommand(c.newSearchCommand())
	c.rootCmd.AddCommand(c.newScrapeCommand())
}

// Run executes the command line. An interrupt cancels in-flight requests.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		return err
	}
	return nil
}

func (c *CLI) initLogging() {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// open loads the configuration and opens the store.
func (c *CLI) open() (config.Config, *storage.Store, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if c.dbPath != "" {
		cfg.Database = c.dbPath
	}
	store, err := storage.Open(cfg.Database)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, store, nil
}

func (c *CLI) newSearchCommand() *cobra.Command {
	var (
		begin    string
		end      string
		query    string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch article metadata week by week from the Article Search API",
		Example: `  konu-collect search
  konu-collect search --begin 1987-01-01 --end 1987-12-31 -v
  NYT_API_KEY=... konu-collect search --db data/konu.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("begin") {
				cfg.Collect.Begin = begin
			}
			if cmd.Flags().Changed("end") {
				cfg.Collect.End = end
			}
			if cmd.Flags().Changed("query") {
				cfg.Collect.Query = query
			}
			if cmd.Flags().Changed("interval") {
				cfg.Collect.IntervalSeconds = interval
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			from, to, err := cfg.Collect.Window()
			if err != nil {
				return err
			}

			client, err := NewClient(ClientOptions{
				BaseURL:  cfg.Collect.BaseURL,
				APIKey:   cfg.APIKey,
				Query:    cfg.Collect.Query,
				Interval: cfg.Collect.Interval(),
				MaxPages: cfg.Collect.MaxPages,
				Timeout:  cfg.Collect.TimeoutSeconds,
			})
			if err != nil {
				return fmt.Errorf("%w (set %s)", err, config.EnvAPIKey)
			}

			return searchWindows(cmd.Context(), client, store, Weeks(from, to))
		},
	}

	cmd.Flags().StringVar(&begin, "begin", "", "First publication day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last publication day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&query, "query", "", "Filter query (fq)")
	cmd.Flags().IntVar(&interval, "interval", 6, "Seconds between API requests")
	return cmd
}

type searcher interface {
	Search(ctx context.Context, w Window) ([]corpus.Document, error)
}

func searchWindows(ctx context.Context, client searcher, store *storage.Store, windows []Window) error {
	total := 0
	for i, w := range windows {
		docs, err := client.Search(ctx, w)
		if err != nil {
			return err
		}
		if err := store.SaveArticles(ctx, docs); err != nil {
			return err
		}
		total += len(docs)
		slog.Info("Searched week", "begin", w.Begin.Format("2006-01-02"),
			"articles", len(docs), "total", total, "progress", fmt.Sprintf("%d/%d", i+1, len(windows)))
	}
	slog.Info("Search complete", "windows", len(windows), "articles", total)
	return nil
}

func (c *CLI) newScrapeCommand() *cobra.Command {
	var (
		render   bool
		limit    int
		interval int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Download the body text of stored articles that have none",
		Example: `  konu-collect scrape
  konu-collect scrape --limit 100 --interval 2
  konu-collect scrape --render`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("render") {
				cfg.Collect.Render = render
			}
			delay := time.Second
			if cmd.Flags().Changed("interval") {
				delay = time.Duration(interval) * time.Second
			}

			pending, err := store.Articles(cmd.Context(), storage.Query{MissingText: true})
			if err != nil {
				return err
			}
			pending = keepTypes(pending, cfg.Collect.MaterialTypes)
			if limit > 0 && len(pending) > limit {
				pending = pending[:limit]
			}
			slog.Info("Scraping articles", "pending", len(pending), "render", cfg.Collect.Render)

			opts := ScraperOptions{
				Domains:  cfg.Collect.Domains,
				Interval: delay,
				Timeout:  cfg.Collect.TimeoutSeconds,
			}
			if cfg.Collect.Render {
				opts.Renderer = ChromeRenderer{Timeout: time.Duration(cfg.Collect.TimeoutSeconds) * time.Second}
			}
			scraper := NewScraper(opts)

			n, err := scraper.ScrapeAll(cmd.Context(), pending, func(id, text string) error {
				return store.SetText(cmd.Context(), id, text)
			})
			slog.Info("Scrape complete", "saved", n, "skipped", len(pending)-n)
			return err
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "Render pages in headless Chrome")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max articles to scrape (0=unlimited)")
	cmd.Flags().IntVar(&interval, "interval", 1, "Seconds between page requests")
	return cmd
}

// keepTypes drops documents whose material type is not listed. Nil types keeps all.
func keepTypes(docs []corpus.Document, types []string) []corpus.Document {
	if types == nil {
		return docs
	}
	var out []corpus.Document
	for _, d := range docs {
		if slices.Contains(types, d.TypeOfMaterial) {
			out = append(out, d)
		}
	}
	return out
}
