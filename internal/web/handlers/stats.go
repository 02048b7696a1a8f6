package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/facewall/internal/camera"
	"github.com/kozaktomas/facewall/internal/database"
)

// StatsHandler reports operational numbers for the dashboard.
type StatsHandler struct {
	store      database.IdentityReader
	controller RecognitionController
	buffer     *camera.Buffer
	stream     *DetectionStream
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store database.IdentityReader, controller RecognitionController, buffer *camera.Buffer, stream *DetectionStream) *StatsHandler {
	return &StatsHandler{
		store:      store,
		controller: controller,
		buffer:     buffer,
		stream:     stream,
	}
}

// Get handles GET /stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		log.Printf("failed to count identities: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	status := h.controller.Status()

	frame := map[string]any{"available": false}
	if age, ok := h.buffer.Age(); ok {
		frame["available"] = true
		frame["age_ms"] = age.Milliseconds()
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"identities": count,
		"recognition": map[string]any{
			"state":      status.State,
			"detections": len(h.controller.Detections()),
		},
		"frame":           frame,
		"event_listeners": h.stream.ListenerCount(),
	})
}
