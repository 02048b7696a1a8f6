package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/facewall/internal/camera"
)

// maxFrameBytes bounds a single uploaded frame.
const maxFrameBytes = 10 << 20 // 10 MB

// FramesHandler ingests webcam frames from browser clients.
type FramesHandler struct {
	buffer *camera.Buffer
}

// NewFramesHandler creates a frames handler.
func NewFramesHandler(buffer *camera.Buffer) *FramesHandler {
	return &FramesHandler{buffer: buffer}
}

// Upload handles POST /frames. Accepts either a multipart form with a
// "frame" file or a raw image body.
func (h *FramesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var data []byte
	var frameType string

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFrameBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("frame")
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing frame file")
			return
		}
		defer file.Close()

		data, err = io.ReadAll(io.LimitReader(file, maxFrameBytes+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read frame")
			return
		}
		frameType = header.Header.Get("Content-Type")
	} else {
		var err error
		data, err = io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read frame")
			return
		}
		frameType = contentType
	}

	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty frame")
		return
	}
	if len(data) > maxFrameBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}

	h.buffer.Put(data, frameType)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Status handles GET /frames/status.
func (h *FramesHandler) Status(w http.ResponseWriter, r *http.Request) {
	age, ok := h.buffer.Age()
	resp := map[string]any{
		"has_frame": ok,
	}
	if ok {
		resp["age_ms"] = age.Milliseconds()
	}
	respondJSON(w, http.StatusOK, resp)
}
