package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repoSlug = "happyhackingspace/konu"

var errNoRelease = errors.New("no published release")

func (c *CLI) newUpCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Update konu to the latest release",
		Example: `  konu up
  konu up --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.upgrade(cmd.Context(), checkOnly)
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	return cmd
}

// runningVersion maps a development build to the oldest version so any
// release counts as newer.
func (c *CLI) runningVersion() string {
	if c.version == "" || c.version == "dev" {
		return "0.0.0"
	}
	return c.version
}

func latestRelease(ctx context.Context) (*selfupdate.Updater, *selfupdate.Release, error) {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return nil, nil, err
	}
	rel, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return nil, nil, fmt.Errorf("look up releases of %s: %w", repoSlug, err)
	}
	if !found {
		return nil, nil, fmt.Errorf("%s: %w", repoSlug, errNoRelease)
	}
	return updater, rel, nil
}

func (c *CLI) upgrade(ctx context.Context, checkOnly bool) error {
	updater, rel, err := latestRelease(ctx)
	if err != nil {
		return err
	}

	if rel.LessOrEqual(c.runningVersion()) {
		fmt.Printf("konu %s is the latest release\n", c.version)
		return nil
	}
	if checkOnly {
		fmt.Printf("konu %s is available (running %s), run `konu up` to install\n", rel.Version(), c.version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate running binary: %w", err)
	}
	slog.Info("Installing release", "version", rel.Version(), "asset", rel.AssetURL, "path", exe)
	if err := updater.UpdateTo(ctx, rel, exe); err != nil {
		return fmt.Errorf("install %s: %w", rel.Version(), err)
	}
	fmt.Printf("konu updated %s -> %s\n", c.version, rel.Version())
	return nil
}
