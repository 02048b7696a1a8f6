package camera

import (
	"testing"
	"time"
)

func TestBuffer_PutAndLatest(t *testing.T) {
	b := NewBuffer(5 * time.Second)

	if _, ok := b.Latest(); ok {
		t.Error("empty buffer should report no frame")
	}

	b.Put([]byte{1, 2, 3}, "image/jpeg")

	frame, ok := b.Latest()
	if !ok {
		t.Fatal("Latest() should return the stored frame")
	}
	if len(frame.Data) != 3 || frame.ContentType != "image/jpeg" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestBuffer_ReplacesWholesale(t *testing.T) {
	b := NewBuffer(5 * time.Second)
	b.Put([]byte{1}, "image/jpeg")
	b.Put([]byte{2, 2}, "image/png")

	frame, ok := b.Latest()
	if !ok {
		t.Fatal("Latest() should return a frame")
	}
	if len(frame.Data) != 2 || frame.ContentType != "image/png" {
		t.Errorf("older frame should be replaced, got %+v", frame)
	}
}

func TestBuffer_Staleness(t *testing.T) {
	b := NewBuffer(5 * time.Second)

	current := time.Now()
	b.now = func() time.Time { return current }

	b.Put([]byte{1}, "image/jpeg")

	if _, ok := b.Latest(); !ok {
		t.Error("fresh frame should be available")
	}

	current = current.Add(6 * time.Second)
	if _, ok := b.Latest(); ok {
		t.Error("stale frame should count as unavailable")
	}
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(0) // no staleness window
	b.Put([]byte{1}, "image/jpeg")
	b.Clear()

	if _, ok := b.Latest(); ok {
		t.Error("cleared buffer should report no frame")
	}
	if _, ok := b.Age(); ok {
		t.Error("cleared buffer should report no age")
	}
}
