// Package cli implements the konu command: text preparation, topic modeling
// and reporting over the article database filled by konu-collect.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/konu/internal/banner"
	"github.com/happyhackingspace/konu/internal/config"
	"github.com/happyhackingspace/konu/internal/storage"
)

// CLI is the konu command tree plus the global flags every subcommand reads.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configPath  string
	dbPath      string
	initialized bool
	rootCmd     *cobra.Command
}

// New builds the command tree. version is printed in the banner and compared
// against releases by `konu up`.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands wires the root command, its persistent flags and every
// subcommand.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "konu",
		Short:         "Topic modeling and sentiment analysis for news archives",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	flags.StringVar(&c.configPath, "config", "", "Config file (default konu.toml if present)")
	flags.StringVar(&c.dbPath, "db", "", "Database path (overrides config)")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newPrepareCommand())
	c.rootCmd.AddCommand(c.newModelCommand())
	c.rootCmd.AddCommand(c.newTopicsCommand())
	c.rootCmd.AddCommand(c.newReportCommand())
	c.rootCmd.AddCommand(c.newRunsCommand())
	c.rootCmd.AddCommand(c.newStopwordsCommand())
	c.rootCmd.AddCommand(c.newDataCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the command line. An interrupt cancels the command context.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		return err
	}
	return nil
}

// initApp installs the stderr log handler and prints the banner once,
// from the run hook or the help func, whichever fires first.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
}

// open loads the configuration and opens the article database.
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
	slog.Debug("Opened database", "path", store.Path())
	return cfg, store, nil
}
