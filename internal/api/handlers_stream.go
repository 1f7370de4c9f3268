package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/viewport"
	"github.com/gorilla/websocket"
)

// checkOrigin applies allowed_origins to websocket upgrades, which the CORS
// middleware does not gate. Requests without an Origin header are not from a
// browser and pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origin = strings.ToLower(origin)
	for _, allowed := range s.cfg.AllowedOrigins {
		allowed = strings.ToLower(allowed)
		if allowed == "*" || allowed == origin {
			return true
		}
		// One wildcard, as in "https://*.example.com".
		if prefix, suffix, ok := strings.Cut(allowed, "*"); ok &&
			len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// streamRequest is the incoming WebSocket message format.
type streamRequest struct {
	Type    string           `json:"type"` // "entries" or "scroll"
	Entries []viewport.Entry `json:"entries,omitempty"`
	View    *viewport.Rect   `json:"view,omitempty"`
}

// streamResponse is the outgoing WebSocket message format.
type streamResponse struct {
	Type string `json:"type"` // "transitions" or "error"
	transitionsResponse
	Error string `json:"error,omitempty"`
}

// handleStream keeps one page's tracker fed over a websocket: each message is
// one batch, each reply the resulting transitions and active set.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pageFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "page_id", p.ID, "error", err)
		return
	}
	defer conn.Close()

	log := s.log.With("page_id", p.ID)
	log.Debug("stream opened")
	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", "error", err)
			}
			return
		}

		resp := s.handleStreamMessage(p, req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("websocket write", "error", err)
			return
		}
	}
}

func (s *Server) handleStreamMessage(p *page.Page, req streamRequest) streamResponse {
	fail := func(msg string) streamResponse {
		return streamResponse{Type: "error", transitionsResponse: transitionsResponse{PageID: p.ID}, Error: msg}
	}

	switch req.Type {
	case "entries", "":
		if err := validateEntries(req.Entries); err != nil {
			return fail(err.Error())
		}
		return streamResponse{Type: "transitions", transitionsResponse: newTransitionsResponse(p, nil, p.Apply(req.Entries))}
	case "scroll":
		if req.View == nil {
			return fail("view is required")
		}
		entries, transitions, err := p.Scroll(*req.View)
		if errors.Is(err, page.ErrNoLayout) {
			return fail("page has no layout")
		}
		if err != nil {
			return fail(err.Error())
		}
		return streamResponse{Type: "transitions", transitionsResponse: newTransitionsResponse(p, entries, transitions)}
	default:
		return fail("unknown message type: " + req.Type)
	}
}
