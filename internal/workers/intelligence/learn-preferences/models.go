// internal/workers/intelligence/learn-preferences/models.go
package learnpreferences

import "perched-workers/internal/models"

type Input struct {
	UserID       string `json:"userId"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
}

type Output struct {
	Profile *models.UserPreferenceProfile `json:"profile"`
	Source  string                        `json:"profileSource"` // cache | rebuilt | default
}
