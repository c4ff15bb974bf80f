// internal/workers/discovery/score-spots/models.go
package scorespots

import "perched-workers/internal/models"

type Input struct {
	UserID   string       `json:"userId"`
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	RadiusKm float64      `json:"radiusKm,omitempty"`
	Context  ScoreContext `json:"context"`

	// Optional pre-fetched profile; looked up via cache when absent.
	Profile *models.UserPreferenceProfile `json:"profile,omitempty"`
}

// ScoreContext is the request-time situational context.
type ScoreContext struct {
	TimeOfDay string `json:"timeOfDay,omitempty"` // morning | afternoon | evening
	Rainy     bool   `json:"rainy,omitempty"`
}

type Output struct {
	Recommendations []models.SpotRecommendation `json:"recommendations"`
	Strategy        string                      `json:"strategy"`
	FromCache       bool                        `json:"fromCache"`
}
