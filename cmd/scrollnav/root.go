package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/scrollnav/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "scrollnav",
		Short: "Build scroll-aware navigation menus for long pages",
		Long: `scrollnav turns a page of labelled sections into a page with a generated
navigation menu, and tracks which section is in view so the matching
block can be highlighted. Sources can be HTML, Markdown, DOCX, PDF or CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.cfgFile, "config", "scrollnav.yml", "config file path")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newBuildCmd(g),
		newMenuCmd(g),
		newReplayCmd(g),
		newSimulateCmd(g),
		newServeCmd(g),
		newVersionCmd(),
	)
	return cmd
}

// load reads and validates the configuration named by --config.
func (g *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(g.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (g *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
