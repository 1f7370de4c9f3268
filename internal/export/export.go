package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/scrollnav/internal/nav"
	"github.com/nao1215/markdown"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat accepts a format name or a common alias. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Menu is the exported view of a page's navigation.
type Menu struct {
	Title   string      `json:"title" yaml:"title"`
	Entries []nav.Entry `json:"entries" yaml:"entries"`
}

// Renderer writes a whole document. *page.Page satisfies it.
type Renderer interface {
	Render(w io.Writer) error
}

// Write encodes m in format f. HTML output is the full document from doc,
// which may be nil for the other formats.
func Write(w io.Writer, f Format, m Menu, doc Renderer) error {
	if m.Entries == nil {
		m.Entries = []nav.Entry{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case Markdown:
		return writeMarkdown(w, m)
	case HTML:
		if doc == nil {
			return errors.New("html export needs a document")
		}
		return doc.Render(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func writeMarkdown(w io.Writer, m Menu) error {
	md := markdown.NewMarkdown(w)
	title := m.Title
	if title == "" {
		title = "Contents"
	}
	md.H1(title)
	md.PlainText("")
	if len(m.Entries) == 0 {
		md.PlainText("No labelled sections.")
		return md.Build()
	}
	items := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		items = append(items, markdown.Link(e.Label, e.Href))
	}
	md.BulletList(items...)
	return md.Build()
}
