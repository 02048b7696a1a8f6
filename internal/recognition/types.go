// Package recognition implements the live recognition sampling loop: a
// controller that periodically samples the newest webcam frame, matches
// detected faces against the known identity snapshot and publishes the
// resulting detection list wholesale.
package recognition

import "time"

// State is the controller lifecycle state.
type State string

const (
	// StateIdle means the sampling loop is not running.
	StateIdle State = "idle"
	// StateSampling means the periodic sampling loop is active.
	StateSampling State = "sampling"
)

// Region is a face bounding box in frame pixel coordinates.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one recognized (or unknown) face from the latest sample.
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Region     Region  `json:"region"`
}

// Status describes the controller for the status endpoint.
type Status struct {
	State         State         `json:"state"`
	Interval      time.Duration `json:"-"`
	IntervalMs    int64         `json:"interval_ms"`
	Threshold     float64       `json:"threshold"`
	ReportUnknown bool          `json:"report_unknown"`
	LastSampleAt  *time.Time    `json:"last_sample_at,omitempty"`
}
