package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facewall/internal/web/handlers"
	"github.com/kozaktomas/facewall/internal/web/middleware"
	"github.com/kozaktomas/facewall/internal/web/static"
)

func (s *Server) setupRoutes() {
	framesHandler := handlers.NewFramesHandler(s.deps.Buffer)
	identitiesHandler := handlers.NewIdentitiesHandler(s.deps.Store, s.deps.Detector, s.deps.Dim, s.deps.OnChange)
	recognitionHandler := handlers.NewRecognitionHandler(s.deps.Controller)
	eventsHandler := handlers.NewEventsHandler(s.deps.Stream, s.deps.Controller)
	chatHandler := handlers.NewChatHandler(s.deps.Chat)
	statsHandler := handlers.NewStatsHandler(s.deps.Store, s.deps.Controller, s.deps.Buffer, s.deps.Stream)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.deps.APIToken))

		// Frames
		r.Post("/frames", framesHandler.Upload)
		r.Get("/frames/status", framesHandler.Status)

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Register)
		r.Delete("/identities/{uid}", identitiesHandler.Delete)
		r.Post("/identities/search", identitiesHandler.Search)

		// Recognition loop
		r.Post("/recognition/start", recognitionHandler.Start)
		r.Post("/recognition/stop", recognitionHandler.Stop)
		r.Get("/recognition/status", recognitionHandler.Status)
		r.Get("/recognition/detections", recognitionHandler.Detections)
		r.Get("/recognition/events", eventsHandler.Events)

		// Chat
		r.Post("/chat", chatHandler.Ask)

		// Stats
		r.Get("/stats", statsHandler.Get)
	})

	// Frontend (embedded placeholder unless a build is dropped in)
	if static.HasDist() {
		s.router.Handle("/*", http.FileServer(static.GetFileSystem()))
	}
}
