// Package web is the HTTP surface of the service: frame ingest, identity
// registry, recognition loop control and the chat endpoint.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/facewall/internal/camera"
	"github.com/kozaktomas/facewall/internal/chat"
	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/web/handlers"
	"github.com/kozaktomas/facewall/internal/web/middleware"
)

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Store      database.IdentityWriter
	Detector   handlers.FaceDetector
	Controller handlers.RecognitionController
	Buffer     *camera.Buffer
	Stream     *handlers.DetectionStream
	Chat       *chat.Service
	Dim        int
	OnChange   func() // called after identity mutations
	APIToken   string // empty disables auth
}

// Server represents the web server.
type Server struct {
	deps       Deps
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server.
func NewServer(deps Deps, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{
		deps:   deps,
		router: r,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout for the SSE stream
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
