package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/facewall/internal/camera"
	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/database/mock"
	"github.com/kozaktomas/facewall/internal/recognition"
)

func TestStatsHandler_Get(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity(database.StoredIdentity{UID: "a", Name: "Alice", Embedding: []float32{1}})

	buffer := camera.NewBuffer(5 * time.Second)
	buffer.Put([]byte{1}, "image/jpeg")

	ctrl := &fakeController{
		state:      recognition.StateSampling,
		detections: []recognition.Detection{{Name: "Alice", Confidence: 0.9}},
	}

	h := NewStatsHandler(store, ctrl, buffer, NewDetectionStream())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Identities  int `json:"identities"`
		Recognition struct {
			State      string `json:"state"`
			Detections int    `json:"detections"`
		} `json:"recognition"`
		Frame struct {
			Available bool `json:"available"`
		} `json:"frame"`
		EventListeners int `json:"event_listeners"`
	}
	decodeJSON(t, rec, &resp)

	if resp.Identities != 1 {
		t.Errorf("identities = %d, want 1", resp.Identities)
	}
	if resp.Recognition.State != "sampling" || resp.Recognition.Detections != 1 {
		t.Errorf("recognition = %+v", resp.Recognition)
	}
	if !resp.Frame.Available {
		t.Error("frame should be available")
	}
}

func TestStatsHandler_StoreError(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.CountError = errors.New("db down")

	h := NewStatsHandler(store, &fakeController{}, camera.NewBuffer(time.Second), NewDetectionStream())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
