// internal/workers/intelligence/calibration-snapshot/config.go
package calibrationsnapshot

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
