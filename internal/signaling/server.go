package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Server is the signaling server: it owns the room manager actor, the
// WebSocket handler, and an HTTP observability surface for health and
// room statistics.
type Server struct {
	rooms   *RoomManager
	handler *Handler

	httpServer *http.Server
	mux        *http.ServeMux

	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	shutdownOnce sync.Once
	done         chan struct{}

	Logger *log.Logger
}

// Config holds server configuration options.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *log.Logger
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		Logger:       log.Default(),
	}
}

// NewServer creates a new signaling server with the given configuration.
// It starts the room manager actor goroutine immediately.
func NewServer(cfg Config) *Server {
	rooms := NewRoomManager()
	handler := NewHandler(rooms, NewUpgrader(), cfg.Logger)

	s := &Server{
		rooms:        rooms,
		handler:      handler,
		mux:          http.NewServeMux(),
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       cfg.Logger,
		done:         make(chan struct{}),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.Handle("/ws", s.handler)

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/rooms", s.handleRooms)
	s.mux.HandleFunc("/api/rooms/", s.handleRoom) // /api/rooms/{code}

	s.mux.HandleFunc("/", s.handleNotFound)
}

// Start begins serving requests. Blocks until shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.Addr,
		Handler:      s.corsMiddleware(s.mux),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}

	go s.handleShutdownSignals()

	s.log("starting server on %s", s.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and the room manager actor.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.log("shutting down...")
		close(s.done)

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		s.rooms.Stop()
	})
	return err
}

// handleShutdownSignals listens for OS signals and initiates graceful shutdown.
func (s *Server) handleShutdownSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		s.log("received signal: %v", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	case <-s.done:
		return
	}
}

// --- HTTP Handlers ---

// corsMiddleware adds CORS headers for cross-origin requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// handleStats returns room manager statistics, sourced from the actor's
// Stats command so it never races with mutation.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.rooms.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total_rooms": stats.TotalRooms,
		"total_peers": stats.TotalPeers,
		"timestamp":   time.Now().UnixMilli(),
	})
}

// handleRooms returns a per-room peer count snapshot.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.rooms.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rooms": stats.RoomSizes,
	})
}

// handleRoom returns the peer count for a specific room.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if code == "" {
		http.Error(w, "room code required", http.StatusBadRequest)
		return
	}

	stats := s.rooms.Stats()
	size, ok := stats.RoomSizes[code]
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":       code,
		"peer_count": size,
	})
}

// handleNotFound handles unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// log writes a log message if a logger is configured.
func (s *Server) log(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf("[server] "+format, args...)
	}
}

// Handler returns the WebSocket handler for configuration.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Rooms returns the room manager for external access.
func (s *Server) Rooms() *RoomManager {
	return s.rooms
}

// HandlerFunc returns the handler as an http.Handler, useful for embedding
// in a custom router or test server.
func (s *Server) HandlerFunc() http.Handler {
	return s.corsMiddleware(s.mux)
}

// ListenAddr returns the address format string.
func (s *Server) ListenAddr() string {
	return fmt.Sprintf("http://localhost%s", s.Addr)
}
