// internal/models/spot.go
package models

// SpotCandidate is a nearby venue with its recent aggregate metrics.
// Ephemeral: rebuilt per query from a bounded recent window.
type SpotCandidate struct {
	PlaceID      string   `json:"placeId"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	DistanceKm   float64  `json:"distanceKm"`
	AvgNoise     *float64 `json:"avgNoise,omitempty"`
	AvgWifi      *float64 `json:"avgWifi,omitempty"`
	AvgBusyness  *float64 `json:"avgBusyness,omitempty"`
	OutletScore  *float64 `json:"outletScore,omitempty"`
	CheckinCount int      `json:"checkinCount"`
	Indoor       bool     `json:"indoor"`
}

// SpotRecommendation is a ranked, display-ready scoring result.
type SpotRecommendation struct {
	PlaceID           string   `json:"placeId"`
	Name              string   `json:"name"`
	Score             int      `json:"score"`
	Reasons           []string `json:"reasons"`
	PredictedBusyness *float64 `json:"predictedBusyness,omitempty"`
	PredictedNoise    *float64 `json:"predictedNoise,omitempty"`
	BestTimeToVisit   string   `json:"bestTimeToVisit,omitempty"`
	MatchScore        int      `json:"matchScore"`
}
