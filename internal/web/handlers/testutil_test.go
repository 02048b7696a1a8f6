package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facewall/internal/detector"
	"github.com/kozaktomas/facewall/internal/recognition"
)

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a multipart request with form fields and one file.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string, fileData []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed to write file data: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// decodeJSON decodes a response recorder body into target.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
}

// fakeDetector returns a fixed detection response.
type fakeDetector struct {
	resp *detector.DetectResponse
	err  error
}

func (f *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) (*detector.DetectResponse, error) {
	return f.resp, f.err
}

// fakeController implements RecognitionController for handler tests.
type fakeController struct {
	startErr   error
	state      recognition.State
	stopped    bool
	detections []recognition.Detection
}

func (f *fakeController) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.state = recognition.StateSampling
	return nil
}

func (f *fakeController) Stop() {
	f.stopped = true
	f.state = recognition.StateIdle
	f.detections = nil
}

func (f *fakeController) Status() recognition.Status {
	state := f.state
	if state == "" {
		state = recognition.StateIdle
	}
	return recognition.Status{
		State:      state,
		IntervalMs: 1000,
		Threshold:  0.6,
	}
}

func (f *fakeController) Detections() []recognition.Detection {
	if f.detections == nil {
		return []recognition.Detection{}
	}
	return f.detections
}
