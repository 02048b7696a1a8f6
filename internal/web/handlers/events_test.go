package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/facewall/internal/recognition"
)

func TestDetectionStream_PublishFanout(t *testing.T) {
	stream := NewDetectionStream()

	ch1 := stream.AddListener()
	ch2 := stream.AddListener()
	if stream.ListenerCount() != 2 {
		t.Fatalf("ListenerCount() = %d, want 2", stream.ListenerCount())
	}

	stream.Publish([]recognition.Detection{{Name: "Alice", Confidence: 0.9}})

	for _, ch := range []chan []recognition.Detection{ch1, ch2} {
		select {
		case got := <-ch:
			if len(got) != 1 || got[0].Name != "Alice" {
				t.Errorf("received %+v", got)
			}
		default:
			t.Error("listener should have received the publication")
		}
	}

	stream.RemoveListener(ch1)
	stream.RemoveListener(ch2)
	if stream.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, want 0", stream.ListenerCount())
	}
}

func TestDetectionStream_SlowListenerDropsUpdates(t *testing.T) {
	stream := NewDetectionStream()
	ch := stream.AddListener()
	defer stream.RemoveListener(ch)

	// Overflow the listener buffer; Publish must never block.
	for i := 0; i < listenerBuffer+5; i++ {
		stream.Publish([]recognition.Detection{})
	}
}

func TestEventsHandler_Stream(t *testing.T) {
	stream := NewDetectionStream()
	ctrl := &fakeController{detections: []recognition.Detection{
		{Name: "Alice", Confidence: 0.9},
	}}
	h := NewEventsHandler(stream, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recognition/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Events(rec, req)
		close(done)
	}()

	// Wait for the handler to register its listener, publish an update,
	// then disconnect.
	deadline := time.Now().Add(time.Second)
	for stream.ListenerCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	stream.Publish([]recognition.Detection{{Name: "Bob", Confidence: 0.8}})
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after disconnect")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: detections") {
		t.Errorf("body = %q, want SSE detections events", body)
	}
	if !strings.Contains(body, "Alice") {
		t.Error("initial detection list should be sent immediately")
	}
	if !strings.Contains(body, "Bob") {
		t.Error("published update should be streamed")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
}
