// internal/models/checkin.go
package models

import "time"

// OutletAvailability is the canonical outlet encoding. Legacy boolean and
// 1-5 numeric forms are normalized into it at the ingestion boundary.
type OutletAvailability string

const (
	OutletsNone    OutletAvailability = "none"
	OutletsLimited OutletAvailability = "limited"
	OutletsPlenty  OutletAvailability = "plenty"
)

// CheckinMetrics holds the workability signals attached to a check-in.
// Every field is optional; nil means the user did not report it.
type CheckinMetrics struct {
	WifiSpeed      *int                `json:"wifiSpeed,omitempty"`
	NoiseLevel     *int                `json:"noiseLevel,omitempty"`
	Busyness       *int                `json:"busyness,omitempty"`
	LaptopFriendly *bool               `json:"laptopFriendly,omitempty"`
	Outlets        *OutletAvailability `json:"outlets,omitempty"`
}

// SignalCount returns how many outcome-relevant metrics are present.
func (m CheckinMetrics) SignalCount() int {
	count := 0
	if m.WifiSpeed != nil {
		count++
	}
	if m.NoiseLevel != nil {
		count++
	}
	if m.Busyness != nil {
		count++
	}
	if m.LaptopFriendly != nil {
		count++
	}
	if m.Outlets != nil {
		count++
	}
	return count
}

// CheckinRecord is a user's visit to a spot. Immutable once written.
type CheckinRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	SpotID    string         `json:"spotId"`
	SpotName  string         `json:"spotName"`
	CreatedAt time.Time      `json:"createdAt"`
	Tags      []string       `json:"tags,omitempty"`
	Caption   string         `json:"caption,omitempty"`
	Metrics   CheckinMetrics `json:"metrics"`
}
