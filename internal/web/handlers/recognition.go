package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/facewall/internal/recognition"
)

// RecognitionController is the surface of the sampling loop the handlers use.
type RecognitionController interface {
	Start(ctx context.Context) error
	Stop()
	Status() recognition.Status
	Detections() []recognition.Detection
}

// RecognitionHandler controls the sampling loop over HTTP.
type RecognitionHandler struct {
	controller RecognitionController
}

// NewRecognitionHandler creates a recognition handler.
func NewRecognitionHandler(controller RecognitionController) *RecognitionHandler {
	return &RecognitionHandler{controller: controller}
}

// Start handles POST /recognition/start.
func (h *RecognitionHandler) Start(w http.ResponseWriter, r *http.Request) {
	err := h.controller.Start(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, h.controller.Status())
	case errors.Is(err, recognition.ErrAlreadyRunning):
		respondError(w, http.StatusConflict, "recognition already running")
	case errors.Is(err, recognition.ErrModelsNotLoaded):
		respondError(w, http.StatusServiceUnavailable, "detection models not loaded")
	default:
		log.Printf("failed to start recognition: %v", err)
		respondError(w, http.StatusServiceUnavailable, "failed to start recognition")
	}
}

// Stop handles POST /recognition/stop.
func (h *RecognitionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.controller.Stop()
	respondJSON(w, http.StatusOK, h.controller.Status())
}

// Status handles GET /recognition/status.
func (h *RecognitionHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.controller.Status())
}

// Detections handles GET /recognition/detections.
func (h *RecognitionHandler) Detections(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"detections": h.controller.Detections(),
	})
}
