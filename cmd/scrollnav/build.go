package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/scrollnav/internal/parser"
	"github.com/maruel/natural"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type buildOptions struct {
	outDir   string
	excludes []string
	jobs     int
}

// buildTarget is one source file and where its page is written.
type buildTarget struct {
	src string
	dst string
}

func newBuildCmd(g *globalOptions) *cobra.Command {
	o := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <glob>...",
		Short: "Write pages with generated menus for every matching source file",
		Long: `Expands each glob (** is supported), parses every supported file and writes
the transformed HTML under --out, keeping paths relative to the glob base.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log := g.logger(cmd.ErrOrStderr())

			targets, err := expandTargets(args, o.excludes, o.outDir)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("no supported files match %s", strings.Join(args, " "))
			}

			opts := cfg.PageOptions()
			var (
				mu      sync.Mutex
				written int
			)
			jobs := max(o.jobs, 1)
			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(jobs)
			for _, t := range targets {
				t := t
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					p, err := loadFile(t.src, opts, log)
					if err != nil {
						return err
					}
					var buf bytes.Buffer
					if err := p.Render(&buf); err != nil {
						return fmt.Errorf("render %s: %w", t.src, err)
					}
					if err := os.MkdirAll(filepath.Dir(t.dst), 0o755); err != nil {
						return err
					}
					if err := os.WriteFile(t.dst, buf.Bytes(), 0o644); err != nil {
						return err
					}
					log.Debug("page written", "src", t.src, "dst", t.dst, "menu_entries", len(p.Menu()))

					mu.Lock()
					written++
					mu.Unlock()
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d page(s) to %s\n", written, o.outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "dist", "output directory")
	cmd.Flags().StringSliceVar(&o.excludes, "exclude", nil, "glob patterns to skip (repeatable)")
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", runtime.NumCPU(), "files processed concurrently")
	return cmd
}

// expandTargets resolves the globs to unique supported files in natural order, each
// mapped to an .html path under outDir.
func expandTargets(patterns, excludes []string, outDir string) ([]buildTarget, error) {
	seen := make(map[string]bool)
	var targets []buildTarget
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || !parser.IsSupportedExtension(m) || excluded(m, excludes) {
				continue
			}
			seen[m] = true

			rel, err := filepath.Rel(filepath.FromSlash(base), m)
			if err != nil || strings.HasPrefix(rel, "..") {
				rel = filepath.Base(m)
			}
			rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
			targets = append(targets, buildTarget{src: m, dst: filepath.Join(outDir, rel)})
		}
	}
	// page2.md before page10.md
	sort.Slice(targets, func(i, j int) bool { return natural.Less(targets[i].src, targets[j].src) })
	return targets, nil
}

func excluded(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.PathMatch(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.PathMatch(pattern, filepath.Base(normalized)); err == nil && ok {
			return true
		}
	}
	return false
}
