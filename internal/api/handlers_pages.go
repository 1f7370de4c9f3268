package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/scrollnav/internal/export"
	"github.com/dgallion1/scrollnav/internal/nav"
	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/parser"
	"github.com/dgallion1/scrollnav/internal/tracker"
	"github.com/dgallion1/scrollnav/internal/viewport"
	"github.com/go-chi/chi/v5"
)

// loadPage parses an upload and records how long the document-ready step took.
func (s *Server) loadPage(filename string, data []byte) (*page.Page, error) {
	defer s.stats.Since("build", time.Now())
	return page.Load(bytes.NewReader(data), filename, s.cfg.PageOptions(), s.log)
}

// writeLoadError maps page load failures onto status codes.
func writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nav.ErrMenuNotFound):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, parser.ErrUnsupported):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, "failed to load document: "+err.Error(), http.StatusUnprocessableEntity)
	}
}

// handleRender transforms an upload and returns the HTML without keeping a
// session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	p, err := s.loadPage(filename, data)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	s.writeHTML(w, p)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	p, err := s.loadPage(filename, data)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	s.pages.Put(p)
	s.log.Info("page created", "page_id", p.ID, "filename", filename, "menu_entries", len(p.Menu()))
	writeJSON(w, http.StatusCreated, p.Snapshot())
}

// pageFromRequest resolves {pageID}, writing a 404 when it is unknown.
func (s *Server) pageFromRequest(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	id := chi.URLParam(r, "pageID")
	p, err := s.pages.Get(id)
	if err != nil {
		jsonError(w, "page not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pageID")
	if !s.pages.Delete(id) {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePageHTML(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	s.writeHTML(w, p)
}

func (s *Server) writeHTML(w http.ResponseWriter, p *page.Page) {
	start := time.Now()
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.Since("render", start)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handlePageMenu(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.Menu{Title: p.Title, Entries: p.Menu()}, p); err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	start := time.Now()
	menu, err := p.Rebuild()
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.stats.Since("rebuild", start)
	writeJSON(w, http.StatusOK, map[string]any{"page_id": p.ID, "menu": menu})
}

// layoutRequest either lists block rects or asks for a stacked layout.
type layoutRequest struct {
	Blocks map[string]viewport.Rect `json:"blocks,omitempty"`
	Stack  *stackLayout               `json:"stack,omitempty"`
}

type stackLayout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Gap    float64 `json:"gap"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rects := req.Blocks
	if req.Stack != nil {
		if req.Stack.Width <= 0 || req.Stack.Height <= 0 || req.Stack.Gap < 0 {
			jsonError(w, "stack width and height must be positive, gap non-negative", http.StatusBadRequest)
			return
		}
		rects = page.StackLayout(p.BlockIDs(), req.Stack.Width, req.Stack.Height, req.Stack.Gap)
	}
	if len(rects) == 0 {
		jsonError(w, "blocks or stack is required", http.StatusBadRequest)
		return
	}
	for id, rect := range rects {
		if rect.Width < 0 || rect.Height < 0 {
			jsonError(w, fmt.Sprintf("block %q has negative size", id), http.StatusBadRequest)
			return
		}
	}

	p.SetLayout(rects)
	writeJSON(w, http.StatusOK, map[string]any{"page_id": p.ID, "blocks": rects})
}

type visibilityRequest struct {
	Entries []viewport.Entry `json:"entries"`
}

type transitionsResponse struct {
	PageID      string               `json:"page_id"`
	Entries     []viewport.Entry     `json:"entries,omitempty"`
	Transitions []tracker.Transition `json:"transitions"`
	Active      []string             `json:"active"`
}

func validateEntries(entries []viewport.Entry) error {
	for i, e := range entries {
		if e.Target == "" {
			return fmt.Errorf("entry %d: target is required", i)
		}
		if e.Ratio < 0 || e.Ratio > 1 {
			return fmt.Errorf("entry %d: ratio %v outside [0, 1]", i, e.Ratio)
		}
	}
	return nil
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateEntries(req.Entries); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	transitions := p.Apply(req.Entries)
	s.stats.Since("visibility", start)
	writeJSON(w, http.StatusOK, newTransitionsResponse(p, nil, transitions))
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}
	var view viewport.Rect
	if err := decodeJSON(r, &view); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	entries, transitions, err := p.Scroll(view)
	if errors.Is(err, page.ErrNoLayout) {
		jsonError(w, "page has no layout; PUT /layout first", http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.Since("scroll", start)
	writeJSON(w, http.StatusOK, newTransitionsResponse(p, entries, transitions))
}

func newTransitionsResponse(p *page.Page, entries []viewport.Entry, transitions []tracker.Transition) transitionsResponse {
	if transitions == nil {
		transitions = []tracker.Transition{}
	}
	return transitionsResponse{
		PageID:      p.ID,
		Entries:     entries,
		Transitions: transitions,
		Active:      p.Tracker().Active(),
	}
}
