package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

// ServerConfig holds configuration for the monitor server.
type ServerConfig struct {
	Host string
	// Port 0 picks a free port; Address reports it after Start.
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// EnableLogging logs every request.
	EnableLogging bool
}

// DefaultServerConfig returns the defaults for a lab machine.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          "127.0.0.1",
		Port:          8090,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		EnableLogging: true,
	}
}

// Server serves the status endpoint and the WebSocket feed of a Hub.
type Server struct {
	hub        *Hub
	config     *ServerConfig
	httpServer *http.Server
	listener   net.Listener

	mu      sync.RWMutex
	running bool
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer creates a server for hub. A nil config uses the defaults.
func NewServer(config *ServerConfig, hub *Hub) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 15 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 15 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 60 * time.Second
	}
	return &Server{hub: hub, config: config}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "no such endpoint: "+r.URL.Path)
	})

	var handler http.Handler = mux
	if s.config.EnableLogging {
		handler = LoggingMiddleware(handler)
	}
	return RecoveryMiddleware(handler)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.hub.Status()
	WriteJSON(w, http.StatusOK, struct {
		Status
		Clients int `json:"clients"`
	}{st, s.hub.ClientCount()})
}

// Address returns the listening address, or the configured one before
// Start.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start binds the port and serves in the background. Binding errors are
// returned at once.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.running = true

	go s.hub.Run()
	go func() {
		log.Printf("[monitor] Serving on http://%s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[monitor] Server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the hub and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	log.Printf("[monitor] Shutting down server...")
	s.running = false
	s.hub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Error: &APIError{Code: code, Message: message},
	})
}
