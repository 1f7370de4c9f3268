package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/scrollnav/internal/config"
	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// Server is the HTTP API server for scrollnav.
type Server struct {
	router chi.Router
	pages  *page.Store
	stats  *stats.Set
	log    *slog.Logger
	cfg    config.Config

	upgrader websocket.Upgrader
}

// NewServer creates and configures the HTTP server.
func NewServer(pages *page.Store, st *stats.Set, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		pages: pages,
		stats: st,
		log:   log,
		cfg:   cfg,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/render", s.handleRender)
		r.Get("/api/stats", s.handleStats)

		r.Post("/api/pages", s.handleCreatePage)
		r.Route("/api/pages/{pageID}", func(r chi.Router) {
			r.Get("/", s.handleGetPage)
			r.Delete("/", s.handleDeletePage)
			r.Get("/html", s.handlePageHTML)
			r.Get("/menu", s.handlePageMenu)
			r.Post("/rebuild", s.handleRebuild)
			r.Put("/layout", s.handleLayout)
			r.Post("/visibility", s.handleVisibility)
			r.Post("/scroll", s.handleScroll)
			r.Get("/stream", s.handleStream)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":      s.pages.Len(),
		"operations": s.stats.Snapshot(),
	})
}
