package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database    DatabaseConfig
	Detector    DetectorConfig
	Recognition RecognitionConfig
	OpenAI      OpenAIConfig
	Gemini      GeminiConfig
	Legacy      LegacyConfig
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	HNSWIndexPath string // Path to persist identity HNSW index (optional, if empty index is rebuilt on startup)
}

type DetectorConfig struct {
	URL string // defaults to http://localhost:8000
	Dim int    // embedding dimensionality, defaults to 128
}

type RecognitionConfig struct {
	Interval        time.Duration // sampling interval (default 1s)
	Threshold       float64       // minimum acceptance confidence (default 0.6)
	ReportUnknown   bool          // report sub-threshold faces as "unknown" instead of dropping them
	FrameMaxAge     time.Duration // frames older than this count as unavailable (default 5s)
	SnapshotRefresh time.Duration // background known-identity refresh interval (default 30s)
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type LegacyConfig struct {
	MySQLDSN string // DSN of the old hosted backend for one-off imports
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a positive duration.
// Returns the default value if the env var is unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean ("true", "1", "yes").
func envBool(key string) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Detector: DetectorConfig{
			URL: os.Getenv("DETECTOR_URL"),
			Dim: envInt("DETECTOR_DIM", 128),
		},
		Recognition: RecognitionConfig{
			Interval:        envDuration("RECOGNITION_INTERVAL", time.Second),
			Threshold:       envFloat("RECOGNITION_THRESHOLD", 0.6),
			ReportUnknown:   envBool("RECOGNITION_REPORT_UNKNOWN"),
			FrameMaxAge:     envDuration("FRAME_MAX_AGE", 5*time.Second),
			SnapshotRefresh: envDuration("SNAPSHOT_REFRESH_INTERVAL", 30*time.Second),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Legacy: LegacyConfig{
			MySQLDSN: os.Getenv("LEGACY_MYSQL_DSN"),
		},
	}
}
