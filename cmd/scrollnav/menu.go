package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/scrollnav/internal/export"
	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/spf13/cobra"
)

func newMenuCmd(g *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "menu <file>",
		Short: "Print the navigation menu of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := loadFile(args[0], cfg.PageOptions(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), f, export.Menu{Title: p.Title, Entries: p.Menu()}, p)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml, markdown, html")
	return cmd
}

func loadFile(path string, opts page.Options, log *slog.Logger) (*page.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := page.Load(f, filepath.Base(path), opts, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
