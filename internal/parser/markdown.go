package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/scrollnav/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Every heading at or
// above SectionLevel opens a labelled section; deeper headings stay inside.
type MarkdownParser struct {
	SectionLevel int
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	level := p.SectionLevel
	if level <= 0 {
		level = 2
	}

	o := &outline.Outline{Title: titleFromFilename(filename)}
	titled := false

	// Content before the first heading lands in an unlabelled section.
	current := &outline.Section{}
	var body bytes.Buffer

	flush := func() {
		current.Body = body.String()
		if current.Label != "" || strings.TrimSpace(current.Body) != "" {
			o.Sections = append(o.Sections, current)
		}
		body.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= level {
			label := strings.TrimSpace(string(h.Text(src)))
			if h.Level == 1 && !titled {
				o.Title = label
				titled = true
			}
			flush()
			current = &outline.Section{Label: label}
		}
		if err := md.Renderer().Render(&body, src, n); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
	}
	flush()

	return o, nil
}
