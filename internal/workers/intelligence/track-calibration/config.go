// internal/workers/intelligence/track-calibration/config.go
package trackcalibration

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	// Prediction search window around the check-in timestamp.
	WindowBefore time.Duration
	WindowAfter  time.Duration
	// Span of the linear recency bonus when scoring match candidates.
	RecencySpan time.Duration
	MinSignals  int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		WindowBefore: 6 * time.Hour,
		WindowAfter:  20 * time.Minute,
		RecencySpan:  5 * time.Hour,
		MinSignals:   2,
		Timeout:      10 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Calibration.MatchWindowBefore > 0 {
		cfg.WindowBefore = engine.Calibration.WindowBefore()
	}
	if engine.Calibration.MatchWindowAfter > 0 {
		cfg.WindowAfter = engine.Calibration.WindowAfter()
	}
	if engine.Calibration.RecencySpanHours > 0 {
		cfg.RecencySpan = time.Duration(engine.Calibration.RecencySpanHours * float64(time.Hour))
	}
	if engine.Calibration.MinSignals > 0 {
		cfg.MinSignals = engine.Calibration.MinSignals
	}
	return cfg
}
