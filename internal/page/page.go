package page

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/scrollnav/internal/dom"
	"github.com/dgallion1/scrollnav/internal/nav"
	"github.com/dgallion1/scrollnav/internal/outline"
	"github.com/dgallion1/scrollnav/internal/parser"
	"github.com/dgallion1/scrollnav/internal/tracker"
	"github.com/dgallion1/scrollnav/internal/viewport"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// ErrNoLayout is returned by Scroll before SetLayout has been called.
var ErrNoLayout = errors.New("page has no layout")

// Options bundle everything needed to make a page ready.
type Options struct {
	Nav         nav.Options
	Tracker     tracker.Options
	Parser      parser.Options
	ActiveClass string
}

func (o Options) activeClass() string {
	if o.ActiveClass == "" {
		return "active"
	}
	return o.ActiveClass
}

func (o Options) renderOptions() outline.RenderOptions {
	return outline.RenderOptions{Attr: o.Nav.Attr, Tag: o.Nav.Tag, MenuID: o.Nav.MenuID}
}

// Page is one loaded document with its menu and visibility tracker.
type Page struct {
	ID          string
	Filename    string
	Title       string
	ContentHash string
	CreatedAt   time.Time

	opts Options
	log  *slog.Logger

	// mu guards the document tree and everything derived from it.
	mu        sync.Mutex
	doc       *html.Node
	blocks    []*nav.Block
	byID      map[string]*nav.Block
	menu      []nav.Entry
	observer  *viewport.Observer
	updatedAt time.Time

	// scrollMu serializes observer updates with the tracker handling of their
	// entries. Lock order: scrollMu, then tracker, then mu.
	scrollMu sync.Mutex

	tracker *tracker.Tracker
}

// Load parses a source file and makes the page ready.
func Load(r io.Reader, filename string, opts Options, log *slog.Logger) (*Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	doc, err := parser.Document(bytes.NewReader(data), filename, opts.Parser, opts.renderOptions())
	if err != nil {
		return nil, err
	}
	p, err := New(doc, filename, opts, log)
	if err != nil {
		return nil, err
	}
	p.ContentHash = ContentHashHex(data)
	return p, nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// New runs the document-ready step on an already parsed tree: the menu is
// built once, then every block is registered with the tracker.
func New(doc *html.Node, filename string, opts Options, log *slog.Logger) (*Page, error) {
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	p := &Page{
		ID:        uuid.NewString(),
		Filename:  filename,
		Title:     dom.Title(doc),
		CreatedAt: now,
		opts:      opts,
		doc:       doc,
		updatedAt: now,
	}
	p.log = log.With("page_id", p.ID)
	p.tracker = tracker.New(opts.Tracker, tracker.FlaggerFunc(p.setFlag), p.log)

	menu, err := nav.Build(doc, opts.Nav)
	if err != nil {
		return nil, fmt.Errorf("build menu: %w", err)
	}
	p.menu = menu
	p.indexBlocks()

	p.tracker.Observe(p.blockIDs()...)

	p.log.Debug("page ready", "blocks", len(p.blocks), "menu_entries", len(menu))
	return p, nil
}

// indexBlocks re-reads the blocks after ids were assigned. Caller holds mu or
// is the constructor.
func (p *Page) indexBlocks() {
	p.blocks = nav.Blocks(p.doc, p.opts.Nav)
	p.byID = make(map[string]*nav.Block, len(p.blocks))
	for _, b := range p.blocks {
		if b.ID == "" {
			continue
		}
		if _, dup := p.byID[b.ID]; dup {
			p.log.Warn("duplicate block id", "id", b.ID)
			continue
		}
		p.byID[b.ID] = b
	}
}

// setFlag is the tracker's presentation hook: it toggles the active class.
func (p *Page) setFlag(id string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.byID[id]
	if !ok {
		return
	}
	b.Active = on
	if on {
		dom.AddClass(b.Node, p.opts.activeClass())
	} else {
		dom.RemoveClass(b.Node, p.opts.activeClass())
	}
	p.updatedAt = time.Now()
}

// Tracker exposes the page's visibility tracker, e.g. for Run.
func (p *Page) Tracker() *tracker.Tracker {
	return p.tracker
}

// Apply feeds one intersection batch to the tracker.
func (p *Page) Apply(batch []viewport.Entry) []tracker.Transition {
	return p.tracker.Handle(batch)
}

// SetLayout records block geometry and (re)starts observation. Blocks
// missing from rects stop being observed.
func (p *Page) SetLayout(rects map[string]viewport.Rect) {
	p.scrollMu.Lock()
	defer p.scrollMu.Unlock()

	fresh := viewport.NewObserver(p.tracker.Options().ObserverOptions())
	p.mu.Lock()
	defer p.mu.Unlock()
	obs := p.observer
	if obs == nil {
		obs = fresh
	}
	for _, b := range p.blocks {
		if r, ok := rects[b.ID]; ok {
			obs.Observe(b.ID, r)
		} else {
			obs.Unobserve(b.ID)
		}
	}
	p.observer = obs
	p.updatedAt = time.Now()
}

// Scroll moves the viewport and applies whatever the observer reports.
// Concurrent calls are applied in the order their entries were computed.
func (p *Page) Scroll(view viewport.Rect) ([]viewport.Entry, []tracker.Transition, error) {
	p.scrollMu.Lock()
	defer p.scrollMu.Unlock()

	p.mu.Lock()
	obs := p.observer
	if obs == nil {
		p.mu.Unlock()
		return nil, nil, ErrNoLayout
	}
	entries := obs.Update(view)
	p.mu.Unlock()

	// The tracker calls back into setFlag, so it runs outside mu.
	return entries, p.tracker.Handle(entries), nil
}

// Rebuild regenerates the menu from the current blocks. It always clears the
// container first, whatever mode the page was loaded with.
func (p *Page) Rebuild() ([]nav.Entry, error) {
	p.mu.Lock()
	opts := p.opts.Nav
	opts.Mode = nav.ModeRebuild
	menu, err := nav.Build(p.doc, opts)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("rebuild menu: %w", err)
	}
	p.menu = menu

	// Keep Active flags; new blocks start inactive.
	prev := p.byID
	p.indexBlocks()
	for _, b := range p.blocks {
		if old, ok := prev[b.ID]; ok {
			b.Active = old.Active
		}
	}
	ids := p.blockIDs()
	p.updatedAt = time.Now()
	p.mu.Unlock()

	// The tracker calls back into setFlag, so it is never invoked under mu.
	p.tracker.Observe(ids...)
	return append([]nav.Entry(nil), menu...), nil
}

// blockIDs lists the keyed blocks in document order. Caller holds mu.
func (p *Page) blockIDs() []string {
	ids := make([]string, 0, len(p.blocks))
	for _, b := range p.blocks {
		if b.ID != "" {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Menu returns a copy of the current menu entries.
func (p *Page) Menu() []nav.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]nav.Entry(nil), p.menu...)
}

// Render writes the current document, flags included.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return html.Render(w, p.doc)
}

// UpdatedAt is the last time the document or layout changed.
func (p *Page) UpdatedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updatedAt
}

// BlockSnapshot is a JSON-safe copy of one block.
type BlockSnapshot struct {
	Order   int    `json:"order"`
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Labeled bool   `json:"labeled"`
	Active  bool   `json:"active"`
}

// Snapshot is a read-only, JSON-safe copy of page state.
type Snapshot struct {
	ID          string          `json:"page_id"`
	Filename    string          `json:"filename"`
	Title       string          `json:"title"`
	ContentHash string          `json:"content_hash,omitempty"`
	Menu        []nav.Entry     `json:"menu"`
	Blocks      []BlockSnapshot `json:"blocks"`
	Active      []string        `json:"active"`
	HasLayout   bool            `json:"has_layout"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the page state.
func (p *Page) Snapshot() Snapshot {
	active := p.tracker.Active()

	p.mu.Lock()
	defer p.mu.Unlock()
	blocks := make([]BlockSnapshot, 0, len(p.blocks))
	for _, b := range p.blocks {
		blocks = append(blocks, BlockSnapshot{
			Order:   b.Order,
			ID:      b.ID,
			Label:   b.Label,
			Labeled: b.Labeled,
			Active:  b.Active,
		})
	}
	menu := p.menu
	if menu == nil {
		menu = []nav.Entry{}
	}
	return Snapshot{
		ID:          p.ID,
		Filename:    p.Filename,
		Title:       p.Title,
		ContentHash: p.ContentHash,
		Menu:        append([]nav.Entry(nil), menu...),
		Blocks:      blocks,
		Active:      active,
		HasLayout:   p.observer != nil,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.updatedAt,
	}
}
