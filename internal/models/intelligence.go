// internal/models/intelligence.go
package models

import (
	"regexp"
	"time"
)

// IntelligencePrediction is an upstream estimate of a spot's work
// suitability, persisted for later calibration against check-ins.
type IntelligencePrediction struct {
	ID           string    `json:"id"`
	PlaceID      string    `json:"placeId"`
	PlaceName    string    `json:"placeName"`
	UserID       string    `json:"userId"`
	WorkScore    float64   `json:"workScore"`
	Confidence   float64   `json:"confidence"`
	ModelVersion string    `json:"modelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConfidenceBucket groups a prediction's stated confidence for
// calibration segmentation: high >= 0.8, medium >= 0.5, low otherwise.
func (p IntelligencePrediction) ConfidenceBucket() string {
	switch {
	case p.Confidence >= 0.8:
		return "high"
	case p.Confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// Outcome quality labels.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityMixed     = "mixed"
	QualityPoor      = "poor"
)

// IntelligenceOutcome links one check-in to its best-matching prediction.
// At most one outcome exists per (checkin, prediction) pair.
type IntelligenceOutcome struct {
	Key               string    `json:"key"`
	CheckinID         string    `json:"checkinId"`
	PredictionID      string    `json:"predictionId"`
	PlaceID           string    `json:"placeId"`
	UserID            string    `json:"userId"`
	ModelVersion      string    `json:"modelVersion"`
	ConfidenceBucket  string    `json:"confidenceBucket"`
	PredictedScore    float64   `json:"predictedScore"`
	ObservedWorkScore float64   `json:"observedWorkScore"`
	SignedError       float64   `json:"signedError"`
	AbsError          float64   `json:"absError"`
	SquaredError      float64   `json:"squaredError"`
	QualityLabel      string    `json:"qualityLabel"`
	QualityScore      float64   `json:"qualityScore"`
	QualityConfidence float64   `json:"qualityConfidence"`
	CreatedAt         time.Time `json:"createdAt"`
}

var outcomeKeyUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// OutcomeKey builds the idempotency key for a (checkin, prediction) pair.
func OutcomeKey(checkinID, predictionID string) string {
	return outcomeKeyUnsafe.ReplaceAllString(checkinID, "-") + "_" +
		outcomeKeyUnsafe.ReplaceAllString(predictionID, "-")
}

// CalibrationMetrics is the singleton rolling aggregate over all outcomes.
// Sums only; readers derive MAE as AbsErrorSum/SampleCount.
type CalibrationMetrics struct {
	SampleCount     int64   `json:"sampleCount"`
	AbsErrorSum     float64 `json:"absErrorSum"`
	SquaredErrorSum float64 `json:"squaredErrorSum"`

	HighConfidenceCount  int64   `json:"highConfidenceCount"`
	HighConfidenceAbsSum float64 `json:"highConfidenceAbsSum"`
	MedConfidenceCount   int64   `json:"medConfidenceCount"`
	MedConfidenceAbsSum  float64 `json:"medConfidenceAbsSum"`
	LowConfidenceCount   int64   `json:"lowConfidenceCount"`
	LowConfidenceAbsSum  float64 `json:"lowConfidenceAbsSum"`

	ExcellentCount int64 `json:"excellentCount"`
	GoodCount      int64 `json:"goodCount"`
	MixedCount     int64 `json:"mixedCount"`
	PoorCount      int64 `json:"poorCount"`

	ByModelVersion map[string]ModelVersionMetrics `json:"byModelVersion,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// ModelVersionMetrics segments calibration sums per upstream model version.
type ModelVersionMetrics struct {
	SampleCount int64   `json:"sampleCount"`
	AbsErrorSum float64 `json:"absErrorSum"`
}

// MeanAbsError derives MAE from the sums; zero when no samples exist.
func (m CalibrationMetrics) MeanAbsError() float64 {
	if m.SampleCount == 0 {
		return 0
	}
	return m.AbsErrorSum / float64(m.SampleCount)
}
