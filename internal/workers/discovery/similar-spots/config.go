// internal/workers/discovery/similar-spots/config.go
package similarspots

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	MaxSampledUsers int
	BatchSize       int
	MaxResults      int
	MinOverlapUsers int
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxSampledUsers: 100,
		BatchSize:       10,
		MaxResults:      10,
		MinOverlapUsers: 2,
		Timeout:         10 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Similar.MaxSampledUsers > 0 {
		cfg.MaxSampledUsers = engine.Similar.MaxSampledUsers
	}
	if engine.Similar.BatchSize > 0 {
		cfg.BatchSize = engine.Similar.BatchSize
	}
	if engine.Similar.MaxResults > 0 {
		cfg.MaxResults = engine.Similar.MaxResults
	}
	if engine.Similar.MinOverlapUsers > 0 {
		cfg.MinOverlapUsers = engine.Similar.MinOverlapUsers
	}
	return cfg
}
