package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/viewport"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newReplayCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file> <batches>",
		Short: "Feed recorded intersection batches to a document's tracker",
		Long: `Replay reads a stream of JSON arrays of intersection entries, one array
per batch, from <batches> ("-" for stdin) and reports the resulting flags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := loadFile(args[0], cfg.PageOptions(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			n, err := replay(cmd.Context(), p, in)
			if err != nil {
				return err
			}

			snap := p.Snapshot()
			rows := make([][]string, 0, len(snap.Blocks))
			for _, b := range snap.Blocks {
				rows = append(rows, []string{b.ID, b.Label, strconv.FormatBool(b.Active)})
			}
			md := markdown.NewMarkdown(cmd.OutOrStdout())
			md.H2(fmt.Sprintf("%s: %d batches", p.Title, n))
			md.PlainText("")
			md.Table(markdown.TableSet{
				Header: []string{"Block", "Label", "Active"},
				Rows:   rows,
			})
			return md.Build()
		},
	}
}

// replay decodes batches from r and runs them through the page's tracker in
// order. It returns the number of batches applied.
func replay(ctx context.Context, p *page.Page, r io.Reader) (int, error) {
	batches := make(chan []viewport.Entry)
	eg, ctx := errgroup.WithContext(ctx)

	n := 0
	eg.Go(func() error {
		defer close(batches)
		dec := json.NewDecoder(r)
		for {
			var batch []viewport.Entry
			if err := dec.Decode(&batch); errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return fmt.Errorf("batch %d: %w", n+1, err)
			}
			select {
			case batches <- batch:
				n++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	eg.Go(func() error {
		return p.Tracker().Run(ctx, batches)
	})

	if err := eg.Wait(); err != nil {
		return n, err
	}
	return n, nil
}
