// internal/workers/intelligence/learn-preferences/config.go
package learnpreferences

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	HistoryLimit int
	MaxFrequent  int
	CacheTTL     time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HistoryLimit: 50,
		MaxFrequent:  10,
		CacheTTL:     7 * 24 * time.Hour,
		Timeout:      10 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Preferences.HistoryLimit > 0 {
		cfg.HistoryLimit = engine.Preferences.HistoryLimit
	}
	if engine.Preferences.MaxFrequent > 0 {
		cfg.MaxFrequent = engine.Preferences.MaxFrequent
	}
	if engine.Preferences.CacheTTLDays > 0 {
		cfg.CacheTTL = engine.Preferences.CacheTTL()
	}
	return cfg
}
