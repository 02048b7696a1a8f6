package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/kozaktomas/facewall/internal/recognition"
)

// listenerBuffer is how many publications a slow SSE client may lag before
// updates are dropped for it.
const listenerBuffer = 8

// DetectionStream fans published detection lists out to SSE listeners. Wire
// its Publish method as the controller's publish callback.
type DetectionStream struct {
	mu        sync.Mutex
	listeners map[chan []recognition.Detection]struct{}
}

// NewDetectionStream creates an empty stream.
func NewDetectionStream() *DetectionStream {
	return &DetectionStream{
		listeners: make(map[chan []recognition.Detection]struct{}),
	}
}

// Publish delivers a detection list to all listeners. Lagging listeners
// miss intermediate lists; only the freshest state matters.
func (s *DetectionStream) Publish(detections []recognition.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.listeners {
		select {
		case ch <- detections:
		default:
		}
	}
}

// AddListener registers a new listener channel.
func (s *DetectionStream) AddListener() chan []recognition.Detection {
	ch := make(chan []recognition.Detection, listenerBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[ch] = struct{}{}
	return ch
}

// RemoveListener unregisters a listener channel.
func (s *DetectionStream) RemoveListener(ch chan []recognition.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, ch)
}

// ListenerCount returns the number of connected listeners.
func (s *DetectionStream) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// EventsHandler streams detection list updates over SSE.
type EventsHandler struct {
	stream     *DetectionStream
	controller RecognitionController
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(stream *DetectionStream, controller RecognitionController) *EventsHandler {
	return &EventsHandler{stream: stream, controller: controller}
}

// Events handles GET /recognition/events. Sends the current detection list
// immediately, then one event per publication until the client disconnects.
func (h *EventsHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := h.stream.AddListener()
	defer h.stream.RemoveListener(ch)

	sendSSEEvent(w, flusher, "detections", map[string]any{
		"detections": h.controller.Detections(),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case detections := <-ch:
			sendSSEEvent(w, flusher, "detections", map[string]any{
				"detections": detections,
			})
		}
	}
}

// sendSSEEvent writes a single SSE event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
