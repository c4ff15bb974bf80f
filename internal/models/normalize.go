// internal/models/normalize.go
package models

import (
	"strings"
	"time"
)

// RawCheckin is the wire shape of a check-in event before normalization.
// Legacy producers send noiseLevel as a string enum and outlets as a
// boolean or a 1-5 score; all of that is resolved here, once.
type RawCheckin struct {
	ID        string      `json:"checkinId"`
	UserID    string      `json:"userId"`
	SpotID    string      `json:"spotId"`
	SpotName  string      `json:"spotName"`
	Timestamp string      `json:"timestamp"`
	Tags      []string    `json:"tags"`
	Caption   string      `json:"caption"`
	WifiSpeed interface{} `json:"wifiSpeed"`
	Noise     interface{} `json:"noiseLevel"`
	Busyness  interface{} `json:"busyness"`
	Laptop    interface{} `json:"laptopFriendly"`
	Outlets   interface{} `json:"outlets"`
}

// NormalizeCheckin converts a raw event into the canonical record.
// Unrecognized metric values become nil, never an error.
func NormalizeCheckin(raw RawCheckin) CheckinRecord {
	rec := CheckinRecord{
		ID:       raw.ID,
		UserID:   raw.UserID,
		SpotID:   raw.SpotID,
		SpotName: raw.SpotName,
		Tags:     raw.Tags,
		Caption:  raw.Caption,
	}
	if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
		rec.CreatedAt = ts.UTC()
	} else {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Metrics = CheckinMetrics{
		WifiSpeed:      NormalizeScale(raw.WifiSpeed),
		NoiseLevel:     NormalizeNoise(raw.Noise),
		Busyness:       NormalizeScale(raw.Busyness),
		LaptopFriendly: normalizeBool(raw.Laptop),
		Outlets:        NormalizeOutlets(raw.Outlets),
	}
	return rec
}

// NormalizeNoise accepts a 1-5 numeric level or the legacy string enum
// {quiet, moderate, lively}. Anything else maps to nil.
func NormalizeNoise(v interface{}) *int {
	if n := NormalizeScale(v); n != nil {
		return n
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return intPtr(1)
	case "moderate":
		return intPtr(3)
	case "lively":
		return intPtr(5)
	default:
		return nil
	}
}

// NormalizeOutlets accepts the canonical enum, the legacy boolean, or the
// legacy 1-5 score. Anything else maps to nil.
func NormalizeOutlets(v interface{}) *OutletAvailability {
	switch val := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "none":
			return outletPtr(OutletsNone)
		case "limited", "some":
			return outletPtr(OutletsLimited)
		case "plenty", "many":
			return outletPtr(OutletsPlenty)
		}
		return nil
	case bool:
		if val {
			return outletPtr(OutletsPlenty)
		}
		return outletPtr(OutletsNone)
	default:
		if n := NormalizeScale(v); n != nil {
			switch {
			case *n <= 1:
				return outletPtr(OutletsNone)
			case *n <= 3:
				return outletPtr(OutletsLimited)
			default:
				return outletPtr(OutletsPlenty)
			}
		}
		return nil
	}
}

// OutletRatio maps the canonical outlet enum onto [0,1] for scoring.
func OutletRatio(o OutletAvailability) float64 {
	switch o {
	case OutletsNone:
		return 0
	case OutletsLimited:
		return 0.5
	case OutletsPlenty:
		return 1
	default:
		return 0
	}
}

// NormalizeScale accepts numeric JSON values and clamps them to 1-5.
// Non-numeric or out-of-range values map to nil.
func NormalizeScale(v interface{}) *int {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	default:
		return nil
	}
	if n < 1 || n > 5 {
		return nil
	}
	return intPtr(int(n + 0.5))
}

func normalizeBool(v interface{}) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func intPtr(n int) *int { return &n }

func outletPtr(o OutletAvailability) *OutletAvailability { return &o }
