package nav

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgallion1/scrollnav/internal/dom"
	"github.com/gosimple/slug"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMenuNotFound is returned when the menu container is absent.
var ErrMenuNotFound = errors.New("menu container not found")

// Mode controls how Build writes into the menu container.
type Mode string

const (
	// ModeRebuild clears the container before appending. Repeat calls are idempotent.
	ModeRebuild Mode = "rebuild"
	// ModeAppend only appends, so a second Build duplicates every entry.
	ModeAppend Mode = "append"
)

// AnchorStyle selects how anchors are derived.
type AnchorStyle string

const (
	AnchorIndex AnchorStyle = "index" // section1, section2, ...
	AnchorSlug  AnchorStyle = "slug"  // intro, features, ...
)

type Options struct {
	Attr         string // label attribute, default data-nav
	Tag          string // block element, default section
	MenuID       string // container id, default navbar__list
	AnchorPrefix string // default section
	AnchorStyle  AnchorStyle
	Mode         Mode
	AssignIDs    bool
}

// DefaultOptions matches the stock page markup.
func DefaultOptions() Options {
	return Options{
		Attr:         "data-nav",
		Tag:          "section",
		MenuID:       "navbar__list",
		AnchorPrefix: "section",
		AnchorStyle:  AnchorIndex,
		Mode:         ModeRebuild,
		AssignIDs:    true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Attr == "" {
		o.Attr = d.Attr
	}
	if o.Tag == "" {
		o.Tag = d.Tag
	}
	if o.MenuID == "" {
		o.MenuID = d.MenuID
	}
	if o.AnchorPrefix == "" {
		o.AnchorPrefix = d.AnchorPrefix
	}
	if o.AnchorStyle == "" {
		o.AnchorStyle = d.AnchorStyle
	}
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	return o
}

// Block is one content block of the page.
type Block struct {
	Order   int    `json:"order"` // 1-based among all blocks
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Labeled bool   `json:"labeled"`
	Active  bool   `json:"active"`

	Node *html.Node `json:"-"`
}

// Entry is one generated menu link.
type Entry struct {
	Index  int    `json:"index"` // 1-based among labelled blocks
	Anchor string `json:"anchor"`
	Href   string `json:"href"`
	Label  string `json:"label"`
}

// Blocks enumerates every block element in document order.
func Blocks(doc *html.Node, opts Options) []*Block {
	opts = opts.withDefaults()
	nodes := dom.FindAll(doc, dom.ByTag(opts.Tag))
	blocks := make([]*Block, 0, len(nodes))
	for i, n := range nodes {
		b := &Block{Order: i + 1, Node: n}
		b.ID, _ = dom.Attr(n, "id")
		b.Label, b.Labeled = dom.Attr(n, opts.Attr)
		blocks = append(blocks, b)
	}
	return blocks
}

// Labeled filters blocks down to those carrying the label attribute.
func Labeled(blocks []*Block) []*Block {
	var out []*Block
	for _, b := range blocks {
		if b.Labeled {
			out = append(out, b)
		}
	}
	return out
}

// Entries derives one entry per labelled block, numbered from 1.
func Entries(blocks []*Block, opts Options) []Entry {
	opts = opts.withDefaults()
	labeled := Labeled(blocks)
	entries := make([]Entry, 0, len(labeled))
	seen := make(map[string]int)
	for i, b := range labeled {
		anchor := opts.anchor(i+1, b.Label, seen)
		entries = append(entries, Entry{
			Index:  i + 1,
			Anchor: anchor,
			Href:   "#" + anchor,
			Label:  b.Label,
		})
	}
	return entries
}

func (o Options) anchor(index int, label string, seen map[string]int) string {
	if o.AnchorStyle == AnchorSlug {
		base := slug.Make(label)
		if base == "" {
			base = o.AnchorPrefix + strconv.Itoa(index)
		}
		seen[base]++
		if n := seen[base]; n > 1 {
			return fmt.Sprintf("%s-%d", base, n)
		}
		return base
	}
	return o.AnchorPrefix + strconv.Itoa(index)
}

// Build writes one <li><a href="#anchor">label</a></li> per labelled block
// into the menu container and returns the entries written.
func Build(doc *html.Node, opts Options) ([]Entry, error) {
	opts = opts.withDefaults()

	container := dom.FindByID(doc, opts.MenuID)
	if container == nil {
		return nil, fmt.Errorf("%w: #%s", ErrMenuNotFound, opts.MenuID)
	}

	blocks := Blocks(doc, opts)
	entries := Entries(blocks, opts)

	if opts.AssignIDs {
		assignIDs(doc, blocks, entries)
	}

	if opts.Mode == ModeRebuild {
		dom.RemoveChildren(container)
	}
	for _, e := range entries {
		container.AppendChild(renderEntry(e))
	}
	return entries, nil
}

// assignIDs gives labelled blocks their anchor as id, and unlabelled blocks
// block<Order>, without touching authored ids. A candidate already used by
// another element gets the first free -2, -3, ... suffix and the entry's
// anchor follows it, so no two blocks share an id.
func assignIDs(doc *html.Node, blocks []*Block, entries []Entry) {
	used := make(map[string]int)
	for _, n := range dom.FindAll(doc, func(n *html.Node) bool {
		_, ok := dom.Attr(n, "id")
		return ok
	}) {
		id, _ := dom.Attr(n, "id")
		used[id]++
	}

	next := 0
	for _, b := range blocks {
		var base string
		if b.Labeled {
			base = entries[next].Anchor
		} else {
			base = "block" + strconv.Itoa(b.Order)
		}
		id := freeID(base, b.ID, used)
		if b.Labeled {
			if id != base {
				entries[next].Anchor = id
				entries[next].Href = "#" + id
			}
			next++
		}
		if b.ID != "" {
			continue
		}
		dom.SetAttr(b.Node, "id", id)
		b.ID = id
		used[id]++
	}
}

// freeID returns base, or base-N for the smallest N >= 2, that no element
// other than the block itself (own) carries.
func freeID(base, own string, used map[string]int) string {
	free := func(id string) bool {
		n := used[id]
		return n == 0 || (n == 1 && id == own)
	}
	if free(base) {
		return base
	}
	for i := 2; ; i++ {
		if id := fmt.Sprintf("%s-%d", base, i); free(id) {
			return id
		}
	}
}

func renderEntry(e Entry) *html.Node {
	a := dom.Element(atom.A, html.Attribute{Key: "href", Val: e.Href})
	a.AppendChild(dom.Text(e.Label))
	li := dom.Element(atom.Li)
	li.AppendChild(a)
	return li
}
