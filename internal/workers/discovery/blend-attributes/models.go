// internal/workers/discovery/blend-attributes/models.go
package blendattributes

// InferredAttribute is an externally-produced attribute estimate.
type InferredAttribute struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Input struct {
	SpotID string `json:"spotId"`

	// Inferred values come from the upstream intelligence producer; any of
	// them may be absent.
	InferredNoise   *InferredAttribute `json:"inferredNoise,omitempty"`
	InferredWifi    *InferredAttribute `json:"inferredWifi,omitempty"`
	InferredOutlets *InferredAttribute `json:"inferredOutlets,omitempty"`
}

// BlendedAttribute is a display-ready attribute value with provenance.
type BlendedAttribute struct {
	Value         float64  `json:"value"`
	Provenance    string   `json:"provenance"` // inferred | live | blended
	InferredValue *float64 `json:"inferredValue,omitempty"`
	LiveValue     *float64 `json:"liveValue,omitempty"`
	CheckinCount  int      `json:"checkinCount"`
}

type Output struct {
	SpotID   string            `json:"spotId"`
	Noise    *BlendedAttribute `json:"noise,omitempty"`
	Wifi     *BlendedAttribute `json:"wifi,omitempty"`
	Outlets  *BlendedAttribute `json:"outlets,omitempty"`
	Busyness *BlendedAttribute `json:"busyness,omitempty"` // live-only, no inferred counterpart
}
