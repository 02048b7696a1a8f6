package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/facewall/internal/chat"
)

// ChatHandler answers questions about the registry and camera state.
type ChatHandler struct {
	service *chat.Service
}

// NewChatHandler creates a chat handler.
func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /chat.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		log.Printf("chat failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	respondJSON(w, http.StatusOK, answer)
}
