// Package api provides a local HTTP API for driving the session from scripts or a browser.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"

	"macro/internal/playback"
	"macro/internal/protocol"
	"macro/internal/session"
)

// Session is the subset of the session controller the API drives
type Session interface {
	BeginCapture() error
	ToggleRun(intervalText, delayText string) error
	Snapshot() session.Snapshot
}

// Server provides HTTP API for local control
type Server struct {
	session Session
	token   string
	wsMgr   *WSManager

	mu      sync.Mutex
	httpSrv *http.Server
}

// NewServer creates a new API server. An empty token disables authentication.
func NewServer(s Session, token string) *Server {
	srv := &Server{
		session: s,
		token:   token,
	}
	srv.wsMgr = newWSManager(srv)
	go srv.wsMgr.start()
	return srv
}

// Handler returns the API routes wrapped in auth and panic recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/capture", s.handleCapture)
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start listens on addr and serves until Shutdown. It blocks.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		return err
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = server
	s.mu.Unlock()

	log.Printf("API: listening on %s", ln.Addr())
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and the WebSocket hub
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsMgr.stop()

	s.mu.Lock()
	server := s.httpSrv
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Notify forwards session events to every connected WebSocket client
func (s *Server) Notify(ev session.Event) {
	s.wsMgr.BroadcastEvent(ev)
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleCapture handles POST /api/capture
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.session.BeginCapture(); err != nil {
		writeSessionError(w, err)
		return
	}
	s.writeSnapshot(w, http.StatusAccepted)
}

// handleToggle handles POST /api/toggle with a JSON body {"interval": "5", "delay": "2"}
// or the same names as query parameters
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := protocol.TogglePayload{
		Interval: r.URL.Query().Get("interval"),
		Delay:    r.URL.Query().Get("delay"),
	}
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid toggle request", http.StatusBadRequest)
			return
		}
	}

	if err := s.session.ToggleRun(req.Interval, req.Delay); err != nil {
		writeSessionError(w, err)
		return
	}
	s.writeSnapshot(w, http.StatusOK)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeSnapshot(w, http.StatusOK)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeSnapshot(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(s.session.Snapshot())
}

// writeSessionError maps session errors onto status codes
func writeSessionError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, playback.ErrConfigParse):
		code = http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorPayload{Message: err.Error()})
}
