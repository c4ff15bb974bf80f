// internal/workers/engagement/record-engagement/models.go
package recordengagement

type Input struct {
	UserID    string `json:"userId"`
	EventType string `json:"eventType"`
	// Category wins when both are present; SpotName is the fallback for
	// clients that only know what the user tapped on.
	Category string `json:"category,omitempty"`
	SpotName string `json:"spotName,omitempty"`
}

type Output struct {
	Recorded bool    `json:"recorded"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}
