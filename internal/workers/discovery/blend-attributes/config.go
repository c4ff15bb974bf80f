// internal/workers/discovery/blend-attributes/config.go
package blendattributes

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	HalfLife      time.Duration
	Window        time.Duration
	MaxCheckins   int
	LiveWeightCap float64
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HalfLife:      84 * time.Hour, // 3.5 days
		Window:        7 * 24 * time.Hour,
		MaxCheckins:   20,
		LiveWeightCap: 0.9,
		Timeout:       10 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Blend.HalfLifeHours > 0 {
		cfg.HalfLife = time.Duration(engine.Blend.HalfLifeHours * float64(time.Hour))
	}
	if engine.Blend.WindowDays > 0 {
		cfg.Window = time.Duration(engine.Blend.WindowDays) * 24 * time.Hour
	}
	if engine.Blend.MaxCheckins > 0 {
		cfg.MaxCheckins = engine.Blend.MaxCheckins
	}
	if engine.Blend.LiveWeightCap > 0 {
		cfg.LiveWeightCap = engine.Blend.LiveWeightCap
	}
	return cfg
}
