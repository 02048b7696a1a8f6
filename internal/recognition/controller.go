package recognition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/facewall/internal/camera"
	"github.com/kozaktomas/facewall/internal/detector"
	"github.com/kozaktomas/facewall/internal/vector"
)

// ErrAlreadyRunning is returned by Start when the loop is already sampling.
var ErrAlreadyRunning = errors.New("recognition loop already running")

// ErrModelsNotLoaded is returned by Start when the face detector has not
// finished loading its models.
var ErrModelsNotLoaded = errors.New("detection models not loaded")

// FrameSource provides the newest webcam frame, if a fresh one exists.
type FrameSource interface {
	Latest() (*camera.Frame, bool)
}

// FaceDetector finds faces and computes embeddings for a frame.
type FaceDetector interface {
	Ready(ctx context.Context) error
	DetectFaces(ctx context.Context, imageData []byte) (*detector.DetectResponse, error)
}

// published is the atomically swapped result of one sampling tick.
type published struct {
	detections []Detection
	at         time.Time
}

// Controller runs the periodic sampling loop. It is either idle or
// sampling; every tick samples the newest frame, matches faces against the
// identity snapshot and replaces the published detection list wholesale.
type Controller struct {
	frames    FrameSource
	detector  FaceDetector
	snapshots SnapshotSource

	interval      time.Duration
	threshold     float64
	reportUnknown bool

	mu         sync.Mutex
	state      State
	generation uint64 // bumped on every Start/Stop; stale ticks see a mismatch
	stopCh     chan struct{}

	inFlight atomic.Bool
	current  atomic.Value // published

	// onPublish, when set, is called after every publication with the new
	// list. Used by the SSE event stream.
	onPublish func([]Detection)
}

// Option configures a Controller.
type Option func(*Controller)

// WithReportUnknown makes sub-threshold faces appear in the published list
// labeled "unknown" instead of being dropped.
func WithReportUnknown(report bool) Option {
	return func(c *Controller) { c.reportUnknown = report }
}

// WithPublishCallback registers a callback invoked on every publication.
func WithPublishCallback(fn func([]Detection)) Option {
	return func(c *Controller) { c.onPublish = fn }
}

// NewController creates an idle controller. Interval must be positive;
// threshold is the strict lower bound on match confidence.
func NewController(frames FrameSource, det FaceDetector, snapshots SnapshotSource, interval time.Duration, threshold float64, opts ...Option) (*Controller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid sampling interval: %v", interval)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1), got %v", threshold)
	}

	c := &Controller{
		frames:    frames,
		detector:  det,
		snapshots: snapshots,
		interval:  interval,
		threshold: threshold,
		state:     StateIdle,
	}
	c.current.Store(published{detections: []Detection{}})
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start transitions the controller to sampling. Fails with
// ErrModelsNotLoaded when the detector is not ready and ErrAlreadyRunning
// when the loop is already active; neither changes the controller state.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSampling {
		return ErrAlreadyRunning
	}

	if err := c.detector.Ready(ctx); err != nil {
		if errors.Is(err, detector.ErrNotReady) {
			return ErrModelsNotLoaded
		}
		return fmt.Errorf("detector not available: %w", err)
	}

	c.state = StateSampling
	c.generation++
	c.stopCh = make(chan struct{})
	go c.run(c.generation, c.stopCh)

	log.Printf("recognition loop started (interval %v, threshold %v)", c.interval, c.threshold)
	return nil
}

// Stop transitions the controller to idle. The published detection list is
// cleared immediately; a tick still in flight cannot resurrect stale
// results because its generation no longer matches. Stopping an idle
// controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSampling {
		return
	}

	close(c.stopCh)
	c.state = StateIdle
	c.generation++
	c.store([]Detection{})

	log.Printf("recognition loop stopped")
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a description of the controller for the status endpoint.
func (c *Controller) Status() Status {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	status := Status{
		State:         state,
		Interval:      c.interval,
		IntervalMs:    c.interval.Milliseconds(),
		Threshold:     c.threshold,
		ReportUnknown: c.reportUnknown,
	}

	pub := c.current.Load().(published)
	if !pub.at.IsZero() {
		at := pub.at
		status.LastSampleAt = &at
	}
	return status
}

// Detections returns the most recently published detection list. The list
// is empty when idle or when the latest sample saw no recognizable faces.
func (c *Controller) Detections() []Detection {
	return c.current.Load().(published).detections
}

// run drives the ticker until the stop channel closes. Each tick samples in
// its own goroutine so a slow detector call skips ticks instead of
// stacking them.
func (c *Controller) run(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			go c.sample(gen)
		}
	}
}

// sample performs one sampling tick. Missing frames, empty snapshots and
// detector failures skip the tick without touching the published list.
func (c *Controller) sample(gen uint64) {
	if !c.inFlight.CompareAndSwap(false, true) {
		// Previous tick still running.
		return
	}
	defer c.inFlight.Store(false)

	frame, ok := c.frames.Latest()
	if !ok {
		return
	}

	snapshot := c.snapshots.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	// The detector gets at most one interval; a sample slower than that
	// would only ever publish already superseded results.
	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	resp, err := c.detector.DetectFaces(ctx, frame.Data)
	if err != nil {
		log.Printf("sampling tick failed: %v", err)
		return
	}

	detections := c.match(snapshot, resp.Faces)
	c.publish(gen, detections)
}

// match resolves each detected face to its best snapshot match. The best
// match is the identity with the smallest embedding distance; only strict
// improvements replace the current best, so equal distances resolve to the
// earlier (newest) snapshot entry.
func (c *Controller) match(snapshot Snapshot, faces []detector.Face) []Detection {
	detections := make([]Detection, 0, len(faces))

	for _, face := range faces {
		bestName := ""
		bestDist := 0.0
		found := false

		for _, known := range snapshot {
			dist := vector.EuclideanDistance(face.Embedding, known.Embedding)
			if !found || dist < bestDist {
				bestName = known.Name
				bestDist = dist
				found = true
			}
		}
		if !found {
			continue
		}

		confidence := vector.Confidence(bestDist)
		region := regionFromBBox(face.BBox)

		if confidence > c.threshold {
			detections = append(detections, Detection{
				Name:       bestName,
				Confidence: confidence,
				Region:     region,
			})
			continue
		}

		if c.reportUnknown {
			detections = append(detections, Detection{
				Name:       "unknown",
				Confidence: confidence,
				Region:     region,
			})
		}
	}

	return detections
}

// publish replaces the detection list wholesale, unless the controller was
// stopped or restarted while this tick was in flight.
func (c *Controller) publish(gen uint64, detections []Detection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen || c.state != StateSampling {
		return
	}
	c.store(detections)
}

// store swaps the published list and notifies the callback. Callers hold mu.
func (c *Controller) store(detections []Detection) {
	c.current.Store(published{detections: detections, at: time.Now()})
	if c.onPublish != nil {
		c.onPublish(detections)
	}
}

// regionFromBBox converts a detector [x1, y1, x2, y2] box to a region.
func regionFromBBox(bbox []float64) Region {
	if len(bbox) < 4 {
		return Region{}
	}
	return Region{
		X:      bbox[0],
		Y:      bbox[1],
		Width:  bbox[2] - bbox[0],
		Height: bbox[3] - bbox[1],
	}
}
