// internal/workers/discovery/similar-spots/models.go
package similarspots

import "perched-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	// SpotID seeds the overlap search; the user's most recent check-in is
	// used when absent.
	SpotID string `json:"spotId,omitempty"`
}

type Output struct {
	Recommendations []models.SpotRecommendation `json:"recommendations"`
	Strategy        string                      `json:"strategy"`
	SeedSpotID      string                      `json:"seedSpotId,omitempty"`
	OverlapUsers    int                         `json:"overlapUsers"`
}
