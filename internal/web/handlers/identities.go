package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/detector"
	"github.com/kozaktomas/facewall/internal/vector"
)

// maxPhotoBytes bounds a registration photo upload.
const maxPhotoBytes = 20 << 20 // 20 MB

// FaceDetector extracts faces from a registration photo.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) (*detector.DetectResponse, error)
}

// IdentitiesHandler manages the identity registry.
type IdentitiesHandler struct {
	store    database.IdentityWriter
	detector FaceDetector
	dim      int
	onChange func() // invoked after successful mutations (snapshot refresh)
}

// NewIdentitiesHandler creates an identities handler. The onChange callback
// may be nil.
func NewIdentitiesHandler(store database.IdentityWriter, det FaceDetector, dim int, onChange func()) *IdentitiesHandler {
	return &IdentitiesHandler{
		store:    store,
		detector: det,
		dim:      dim,
		onChange: onChange,
	}
}

// identityResponse is the public view of a stored identity.
type identityResponse struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

func toIdentityResponse(ident database.StoredIdentity) identityResponse {
	return identityResponse{
		UID:       ident.UID,
		Name:      ident.Name,
		Dim:       ident.Dim,
		CreatedAt: ident.CreatedAt,
	}
}

// List handles GET /identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("failed to list identities: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	out := make([]identityResponse, 0, len(identities))
	for _, ident := range identities {
		out = append(out, toIdentityResponse(ident))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": out,
		"count":      len(out),
	})
}

// registerRequest is the JSON registration body (embedding supplied directly).
type registerRequest struct {
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

// Register handles POST /identities. Accepts a multipart form with "name"
// and a "photo" file (the embedding is extracted through the detector), or
// a JSON body with the embedding inline.
func (h *IdentitiesHandler) Register(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var name string
	var embedding []float32

	if strings.HasPrefix(contentType, "multipart/form-data") {
		var ok bool
		name, embedding, ok = h.registerFromPhoto(w, r)
		if !ok {
			return
		}
	} else {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		name, embedding = req.Name, req.Embedding
	}

	name = strings.TrimSpace(name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(embedding) != h.dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.dim, len(embedding)))
		return
	}

	ident := database.StoredIdentity{
		UID:       uuid.NewString(),
		Name:      name,
		Embedding: embedding,
		Dim:       h.dim,
	}
	if err := h.store.Save(r.Context(), &ident); err != nil {
		log.Printf("failed to save identity %s: %v", sanitizeForLog(name), err)
		respondError(w, http.StatusInternalServerError, "failed to save identity")
		return
	}

	log.Printf("registered identity %s (%s)", sanitizeForLog(name), ident.UID)
	h.notifyChange()
	respondJSON(w, http.StatusCreated, toIdentityResponse(ident))
}

// registerFromPhoto extracts the name and embedding from a multipart photo
// upload. Writes the error response itself and returns ok=false on failure.
func (h *IdentitiesHandler) registerFromPhoto(w http.ResponseWriter, r *http.Request) (string, []float32, bool) {
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return "", nil, false
	}

	name := r.FormValue("name")

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing photo file")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "failed to read photo")
		return "", nil, false
	}

	if h.detector == nil {
		respondError(w, http.StatusServiceUnavailable, "face detector not configured")
		return "", nil, false
	}

	resp, err := h.detector.DetectFaces(r.Context(), data)
	if err != nil {
		log.Printf("face detection failed during registration: %v", err)
		respondError(w, http.StatusBadGateway, "face detection failed")
		return "", nil, false
	}

	// Registration photos must contain exactly one face, otherwise the
	// embedding would be ambiguous.
	if len(resp.Faces) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "no face found in photo")
		return "", nil, false
	}
	if len(resp.Faces) > 1 {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("photo contains %d faces, expected exactly one", len(resp.Faces)))
		return "", nil, false
	}

	return name, resp.Faces[0].Embedding, true
}

// Delete handles DELETE /identities/{uid}.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing identity UID")
		return
	}

	deleted, err := h.store.Delete(r.Context(), uid)
	if err != nil {
		log.Printf("failed to delete identity %s: %v", sanitizeForLog(uid), err)
		respondError(w, http.StatusInternalServerError, "failed to delete identity")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}

	log.Printf("deleted identity %s", sanitizeForLog(uid))
	h.notifyChange()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// searchRequest is the body of POST /identities/search.
type searchRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

// searchResult is one similarity search hit.
type searchResult struct {
	identityResponse
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// Search handles POST /identities/search: nearest identities to a query
// embedding, closest first.
func (h *IdentitiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) != h.dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.dim, len(req.Embedding)))
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	identities, distances, err := h.store.FindSimilar(r.Context(), req.Embedding, req.Limit)
	if err != nil {
		log.Printf("similarity search failed: %v", err)
		respondError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}

	results := make([]searchResult, 0, len(identities))
	for i, ident := range identities {
		results = append(results, searchResult{
			identityResponse: toIdentityResponse(ident),
			Distance:         distances[i],
			Confidence:       vector.Confidence(distances[i]),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *IdentitiesHandler) notifyChange() {
	if h.onChange != nil {
		h.onChange()
	}
}
