// internal/workers/discovery/trending-spots/config.go
package trendingspots

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	MinWeeklyCheckins int
	MaxResults        int
	MaxSpotsScanned   int
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinWeeklyCheckins: 2,
		MaxResults:        10,
		MaxSpotsScanned:   200,
		Timeout:           10 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Trending.MinWeeklyCheckins > 0 {
		cfg.MinWeeklyCheckins = engine.Trending.MinWeeklyCheckins
	}
	if engine.Trending.MaxResults > 0 {
		cfg.MaxResults = engine.Trending.MaxResults
	}
	return cfg
}
