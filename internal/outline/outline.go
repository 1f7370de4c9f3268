package outline

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/dgallion1/scrollnav/internal/dom"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Outline is a parsed source document.
type Outline struct {
	Title    string     // From metadata, first heading, or filename
	Sections []*Section // In source order
}

// Section becomes one content block of the rendered page.
type Section struct {
	Label string // Menu label; empty for preamble content
	Body  string // HTML fragment, already escaped by the producing parser
	Page  int    // Source page (0 if N/A)
}

// RenderOptions name the markup the navigation builder looks for.
type RenderOptions struct {
	Attr   string
	Tag    string
	MenuID string
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Attr == "" {
		o.Attr = "data-nav"
	}
	if o.Tag == "" {
		o.Tag = "section"
	}
	if o.MenuID == "" {
		o.MenuID = "navbar__list"
	}
	return o
}

// Render builds a full document: an empty menu container followed by one
// block per section. Labelled sections carry the label attribute, and
// sections from paged sources carry data-page.
func (o *Outline) Render(opts RenderOptions) (*nethtml.Node, error) {
	opts = opts.withDefaults()

	doc := &nethtml.Node{Type: nethtml.DocumentNode}
	doc.AppendChild(&nethtml.Node{Type: nethtml.DoctypeNode, Data: "html"})

	root := dom.Element(atom.Html)
	doc.AppendChild(root)

	head := dom.Element(atom.Head)
	head.AppendChild(dom.Element(atom.Meta, nethtml.Attribute{Key: "charset", Val: "utf-8"}))
	title := dom.Element(atom.Title)
	title.AppendChild(dom.Text(o.Title))
	head.AppendChild(title)
	root.AppendChild(head)

	body := dom.Element(atom.Body)
	root.AppendChild(body)

	header := dom.Element(atom.Header, nethtml.Attribute{Key: "class", Val: "page__header"})
	navEl := dom.Element(atom.Nav, nethtml.Attribute{Key: "class", Val: "navbar__menu"})
	navEl.AppendChild(dom.Element(atom.Ul, nethtml.Attribute{Key: "id", Val: opts.MenuID}))
	header.AppendChild(navEl)
	body.AppendChild(header)

	mainEl := dom.Element(atom.Main)
	body.AppendChild(mainEl)

	for i, s := range o.Sections {
		el := &nethtml.Node{Type: nethtml.ElementNode, Data: opts.Tag, DataAtom: atom.Lookup([]byte(opts.Tag))}
		if s.Label != "" {
			dom.SetAttr(el, opts.Attr, s.Label)
		}
		if s.Page > 0 {
			dom.SetAttr(el, "data-page", strconv.Itoa(s.Page))
		}
		children, err := nethtml.ParseFragment(strings.NewReader(s.Body), el)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i+1, err)
		}
		for _, c := range children {
			el.AppendChild(c)
		}
		mainEl.AppendChild(el)
	}

	return doc, nil
}

// Paragraphs escapes text and wraps each blank-line separated paragraph in <p>.
func Paragraphs(text string) string {
	var buf strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		buf.WriteString("<p>")
		buf.WriteString(html.EscapeString(para))
		buf.WriteString("</p>\n")
	}
	return buf.String()
}

// Heading renders an escaped <hN> element.
func Heading(level int, text string) string {
	level = min(max(level, 1), 6)
	return fmt.Sprintf("<h%d>%s</h%d>\n", level, html.EscapeString(text), level)
}
