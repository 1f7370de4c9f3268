package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/tracker"
	"github.com/dgallion1/scrollnav/internal/viewport"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	width       float64
	blockHeight float64
	gap         float64
	viewHeight  float64
	step        float64
}

func newSimulateCmd(g *globalOptions) *cobra.Command {
	o := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate <file>",
		Short: "Scroll a stacked layout of the document and report the active block at each step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.blockHeight <= 0 || o.viewHeight <= 0 || o.step <= 0 || o.width <= 0 || o.gap < 0 {
				return fmt.Errorf("sizes and step must be positive")
			}
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := loadFile(args[0], cfg.PageOptions(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			rows, err := o.sweep(p)
			if err != nil {
				return err
			}

			md := markdown.NewMarkdown(cmd.OutOrStdout())
			md.H2(fmt.Sprintf("%s: %d blocks", p.Title, len(p.BlockIDs())))
			md.PlainText("")
			md.Table(markdown.TableSet{
				Header: []string{"Step", "Scroll Y", "Changes", "Active"},
				Rows:   rows,
			})
			return md.Build()
		},
	}
	cmd.Flags().Float64Var(&o.width, "width", 800, "block and viewport width")
	cmd.Flags().Float64Var(&o.blockHeight, "block-height", 600, "height of every block")
	cmd.Flags().Float64Var(&o.gap, "gap", 0, "space between blocks")
	cmd.Flags().Float64Var(&o.viewHeight, "viewport-height", 600, "viewport height")
	cmd.Flags().Float64Var(&o.step, "step", 100, "scroll distance per step")
	return cmd
}

// sweep scrolls from the top until the viewport has passed the last block.
func (o *simulateOptions) sweep(p *page.Page) ([][]string, error) {
	ids := p.BlockIDs()
	p.SetLayout(page.StackLayout(ids, o.width, o.blockHeight, o.gap))

	total := float64(len(ids))*(o.blockHeight+o.gap) - o.gap
	var rows [][]string
	step := 0
	for y := 0.0; y <= total; y += o.step {
		_, transitions, err := p.Scroll(viewport.Rect{Y: y, Width: o.width, Height: o.viewHeight})
		if err != nil {
			return nil, err
		}
		active := strings.Join(p.Tracker().Active(), ", ")
		if active == "" {
			active = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(step),
			strconv.FormatFloat(y, 'f', -1, 64),
			describe(transitions),
			active,
		})
		step++
	}
	return rows, nil
}

func describe(transitions []tracker.Transition) string {
	if len(transitions) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(transitions))
	for _, t := range transitions {
		sign := "-"
		if t.To == tracker.StateActive {
			sign = "+"
		}
		parts = append(parts, sign+t.Target)
	}
	return strings.Join(parts, " ")
}
