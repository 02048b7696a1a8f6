// Package camera holds the latest webcam frame pushed by a browser client.
// Only the newest frame is retained; the recognition loop samples it on each
// tick and a frame older than the staleness window counts as unavailable.
package camera

import (
	"sync"
	"time"
)

// Frame is one captured webcam image as received from the client.
type Frame struct {
	Data        []byte // encoded image bytes (JPEG or PNG)
	ContentType string
	CapturedAt  time.Time
}

// Buffer is a single-slot latest-frame buffer.
type Buffer struct {
	mu     sync.RWMutex
	frame  *Frame
	maxAge time.Duration
	now    func() time.Time // injectable for tests
}

// NewBuffer creates a buffer that treats frames older than maxAge as unavailable.
func NewBuffer(maxAge time.Duration) *Buffer {
	return &Buffer{
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Put replaces the current frame wholesale.
func (b *Buffer) Put(data []byte, contentType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = &Frame{
		Data:        data,
		ContentType: contentType,
		CapturedAt:  b.now(),
	}
}

// Latest returns the newest frame, or false when no fresh frame is available.
// The returned frame is never mutated after publication.
func (b *Buffer) Latest() (*Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.frame == nil {
		return nil, false
	}
	if b.maxAge > 0 && b.now().Sub(b.frame.CapturedAt) > b.maxAge {
		return nil, false
	}
	return b.frame, true
}

// Clear drops the current frame.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = nil
}

// Age returns how old the current frame is, or false if there is none.
func (b *Buffer) Age() (time.Duration, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.frame == nil {
		return 0, false
	}
	return b.now().Sub(b.frame.CapturedAt), true
}
