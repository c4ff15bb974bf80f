// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Engine       EngineConfig            `mapstructure:"engine"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Telemetry    TelemetryConfig         `mapstructure:"telemetry"`
	RegistryPath string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	SpotIndex  string   `mapstructure:"spot_index"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Engine Configuration ---

// EngineConfig holds the tunable constants of the scoring and calibration
// engine. The defaults mirror the behavior observed in production; they are
// configuration, not hard-coded law.
type EngineConfig struct {
	Preferences PreferenceConfig  `mapstructure:"preferences"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Similar     SimilarConfig     `mapstructure:"similar"`
	Trending    TrendingConfig    `mapstructure:"trending"`
	Blend       BlendConfig       `mapstructure:"blend"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
}

type PreferenceConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`  // check-ins read per rebuild
	MaxFrequent  int `mapstructure:"max_frequent"`   // frequent spots kept
	CacheTTLDays int `mapstructure:"cache_ttl_days"` // profile staleness window
}

func (p PreferenceConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLDays) * 24 * time.Hour
}

type ScoringConfig struct {
	MaxResults          int     `mapstructure:"max_results"`
	RadiusKm            float64 `mapstructure:"radius_km"`
	RecommendationTTL   int     `mapstructure:"recommendation_ttl_minutes"`
	CandidateTTL        int     `mapstructure:"candidate_ttl_minutes"`
	CandidateWindowDays int     `mapstructure:"candidate_window_days"`
}

func (s ScoringConfig) RecommendationCacheTTL() time.Duration {
	return time.Duration(s.RecommendationTTL) * time.Minute
}

func (s ScoringConfig) CandidateCacheTTL() time.Duration {
	return time.Duration(s.CandidateTTL) * time.Minute
}

type SimilarConfig struct {
	MaxSampledUsers int `mapstructure:"max_sampled_users"`
	BatchSize       int `mapstructure:"batch_size"` // users per store lookup
	MaxResults      int `mapstructure:"max_results"`
	MinOverlapUsers int `mapstructure:"min_overlap_users"`
}

type TrendingConfig struct {
	MinWeeklyCheckins int `mapstructure:"min_weekly_checkins"` // noise floor
	MaxResults        int `mapstructure:"max_results"`
}

type BlendConfig struct {
	HalfLifeHours float64 `mapstructure:"half_life_hours"` // recency decay half-life
	WindowDays    int     `mapstructure:"window_days"`     // live aggregate window
	MaxCheckins   int     `mapstructure:"max_checkins"`    // live aggregate sample cap
	LiveWeightCap float64 `mapstructure:"live_weight_cap"` // live can never fully override
}

type CalibrationConfig struct {
	MatchWindowBefore int     `mapstructure:"match_window_before_minutes"` // prediction lookback
	MatchWindowAfter  int     `mapstructure:"match_window_after_minutes"`  // prediction lookahead
	RecencySpanHours  float64 `mapstructure:"recency_span_hours"`          // recency bonus decay span
	MinSignals        int     `mapstructure:"min_signals"`
}

func (c CalibrationConfig) WindowBefore() time.Duration {
	return time.Duration(c.MatchWindowBefore) * time.Minute
}

func (c CalibrationConfig) WindowAfter() time.Duration {
	return time.Duration(c.MatchWindowAfter) * time.Minute
}

// --- Telemetry Configuration ---

// TelemetryConfig holds settings for the calibration soft-signal publisher.
type TelemetryConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
