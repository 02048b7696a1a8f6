package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any ambient environment so defaults apply.
	for _, key := range []string{
		"DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
		"DETECTOR_URL", "DETECTOR_DIM",
		"RECOGNITION_INTERVAL", "RECOGNITION_THRESHOLD", "RECOGNITION_REPORT_UNKNOWN",
		"FRAME_MAX_AGE", "SNAPSHOT_REFRESH_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %d, want 5", cfg.Database.MaxIdleConns)
	}
	if cfg.Detector.Dim != 128 {
		t.Errorf("Detector.Dim = %d, want 128", cfg.Detector.Dim)
	}
	if cfg.Recognition.Interval != time.Second {
		t.Errorf("Recognition.Interval = %v, want 1s", cfg.Recognition.Interval)
	}
	if cfg.Recognition.Threshold != 0.6 {
		t.Errorf("Recognition.Threshold = %v, want 0.6", cfg.Recognition.Threshold)
	}
	if cfg.Recognition.ReportUnknown {
		t.Error("ReportUnknown should default to false")
	}
	if cfg.Recognition.FrameMaxAge != 5*time.Second {
		t.Errorf("FrameMaxAge = %v, want 5s", cfg.Recognition.FrameMaxAge)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/facewall")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("DETECTOR_URL", "http://detector:9000")
	t.Setenv("DETECTOR_DIM", "512")
	t.Setenv("RECOGNITION_INTERVAL", "2s")
	t.Setenv("RECOGNITION_THRESHOLD", "0.75")
	t.Setenv("RECOGNITION_REPORT_UNKNOWN", "true")

	cfg := Load()

	if cfg.Database.URL != "postgres://localhost/facewall" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("MaxOpenConns = %d, want 50", cfg.Database.MaxOpenConns)
	}
	if cfg.Detector.URL != "http://detector:9000" {
		t.Errorf("Detector.URL = %q", cfg.Detector.URL)
	}
	if cfg.Detector.Dim != 512 {
		t.Errorf("Detector.Dim = %d, want 512", cfg.Detector.Dim)
	}
	if cfg.Recognition.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Recognition.Interval)
	}
	if cfg.Recognition.Threshold != 0.75 {
		t.Errorf("Threshold = %v, want 0.75", cfg.Recognition.Threshold)
	}
	if !cfg.Recognition.ReportUnknown {
		t.Error("ReportUnknown should be true")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DETECTOR_DIM", "-5")
	t.Setenv("RECOGNITION_INTERVAL", "soon")
	t.Setenv("RECOGNITION_THRESHOLD", "1.5")

	cfg := Load()

	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("invalid MaxOpenConns should fall back to 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Detector.Dim != 128 {
		t.Errorf("negative dim should fall back to 128, got %d", cfg.Detector.Dim)
	}
	if cfg.Recognition.Interval != time.Second {
		t.Errorf("invalid interval should fall back to 1s, got %v", cfg.Recognition.Interval)
	}
	if cfg.Recognition.Threshold != 0.6 {
		t.Errorf("out-of-range threshold should fall back to 0.6, got %v", cfg.Recognition.Threshold)
	}
}
