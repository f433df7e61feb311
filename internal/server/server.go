// Package server provides the HTTP server that hosts lunge scoring sessions.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/lungescore/internal/server/api"
	"github.com/ayusman/lungescore/internal/session"
	"github.com/ayusman/lungescore/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  *session.Manager
}

// Server represents the HTTP server for the lunge scorer.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register reference API handler if Store is configured
	if s.config.Store != nil {
		refHandler := api.NewReferenceHandler(s.config.Store)
		s.mux.Handle("/api/references", refHandler)
		s.mux.Handle("/api/references/", refHandler)
	}

	// Register session API and streaming endpoints if Sessions is configured
	if s.config.Sessions != nil {
		sessionHandler := api.NewSessionHandler(s.config.Sessions, s.config.Store)
		streamHandler := NewStreamHandler(s.config.Sessions)

		// Route /api/sessions/{id}/stream to the WebSocket handler
		sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/stream") {
				streamHandler.ServeHTTP(w, r)
				return
			}
			sessionHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/sessions", sessionRouter)
		s.mux.Handle("/api/sessions/", sessionRouter)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Store    bool   `json:"store"`
	Sessions *int   `json:"sessions,omitempty"`
}

// handleHealth reports uptime and, when hosting sessions, how many are open.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Millisecond).String(),
		Store:  s.config.Store != nil,
	}
	if s.config.Sessions != nil {
		n := s.config.Sessions.Len()
		resp.Sessions = &n
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
