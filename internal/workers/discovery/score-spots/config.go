// internal/workers/discovery/score-spots/config.go
package scorespots

import (
	"time"

	"perched-workers/internal/common/config"
)

type Config struct {
	MaxResults          int
	RadiusKm            float64
	RecommendationTTL   time.Duration
	CandidateTTL        time.Duration
	CandidateWindowDays int
	BatchSize           int
	Timeout             time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxResults:          10,
		RadiusKm:            5,
		RecommendationTTL:   30 * time.Minute,
		CandidateTTL:        10 * time.Minute,
		CandidateWindowDays: 30,
		BatchSize:           10,
		Timeout:             15 * time.Second,
	}
}

// ConfigFromEngine maps the shared engine configuration onto this worker.
func ConfigFromEngine(engine config.EngineConfig) *Config {
	cfg := LoadConfig()
	if engine.Scoring.MaxResults > 0 {
		cfg.MaxResults = engine.Scoring.MaxResults
	}
	if engine.Scoring.RadiusKm > 0 {
		cfg.RadiusKm = engine.Scoring.RadiusKm
	}
	if engine.Scoring.RecommendationTTL > 0 {
		cfg.RecommendationTTL = engine.Scoring.RecommendationCacheTTL()
	}
	if engine.Scoring.CandidateTTL > 0 {
		cfg.CandidateTTL = engine.Scoring.CandidateCacheTTL()
	}
	if engine.Scoring.CandidateWindowDays > 0 {
		cfg.CandidateWindowDays = engine.Scoring.CandidateWindowDays
	}
	return cfg
}
