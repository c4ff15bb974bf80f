// internal/models/profile.go
package models

import "time"

// Preference bucket values. Empty string means no signal.
const (
	NoiseQuiet    = "quiet"
	NoiseModerate = "moderate"
	NoiseLively   = "lively"

	BusynessEmpty    = "empty"
	BusynessModerate = "moderate"
	BusynessBusy     = "busy"

	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"

	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// FrequentSpot is a spot a user visited at least twice, with its visit count.
type FrequentSpot struct {
	SpotID string `json:"spotId"`
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

// UserPreferenceProfile is derived from a user's recent check-in history.
type UserPreferenceProfile struct {
	UserID              string         `json:"userId"`
	PreferredNoiseLevel string         `json:"preferredNoiseLevel,omitempty"`
	PreferredBusyness   string         `json:"preferredBusyness,omitempty"`
	PreferredSpotTypes  []string       `json:"preferredSpotTypes,omitempty"`
	PreferredTimeOfDay  string         `json:"preferredTimeOfDay,omitempty"`
	WifiImportance      string         `json:"wifiImportance"`
	OutletImportance    string         `json:"outletImportance"`
	FrequentSpots       []FrequentSpot `json:"frequentSpots,omitempty"`
	LastUpdated         time.Time      `json:"lastUpdated"`
}

// NeutralProfile is the documented fallback when history is empty or the
// check-in store is unreachable. Scoring must never fail on a missing profile.
func NeutralProfile(userID string) *UserPreferenceProfile {
	return &UserPreferenceProfile{
		UserID:           userID,
		WifiImportance:   ImportanceMedium,
		OutletImportance: ImportanceMedium,
		LastUpdated:      time.Now().UTC(),
	}
}

// IsFrequentSpot reports whether spotID is in the profile's frequent set.
func (p *UserPreferenceProfile) IsFrequentSpot(spotID string) bool {
	for _, fs := range p.FrequentSpots {
		if fs.SpotID == spotID {
			return true
		}
	}
	return false
}
