// internal/workers/discovery/trending-spots/models.go
package trendingspots

type Input struct {
	// SpotIDs limits trend detection to specific spots. When empty, the
	// most active spots of the last week are scanned.
	SpotIDs []string `json:"spotIds,omitempty"`
}

// TrendingSpot reports a spot's week-over-week activity movement.
type TrendingSpot struct {
	SpotID        string  `json:"spotId"`
	Name          string  `json:"name"`
	Last7         int     `json:"last7"`
	Prev7         int     `json:"prev7"`
	PercentChange float64 `json:"percentChange"`
	TrendingScore float64 `json:"trendingScore"`
	Direction     string  `json:"direction"` // up | down | stable
}

type Output struct {
	Trending []TrendingSpot `json:"trending"`
	Strategy string         `json:"strategy"`
}
