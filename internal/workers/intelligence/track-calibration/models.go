// internal/workers/intelligence/track-calibration/models.go
package trackcalibration

import "perched-workers/internal/models"

type Input struct {
	// Checkin is the raw create/update event; legacy metric encodings are
	// normalized here, at the ingestion boundary.
	Checkin models.RawCheckin `json:"checkin"`
}

// Calibration statuses. The job always completes; the status carries the
// soft success/failure outcome instead of a thrown error.
const (
	StatusRecorded  = "recorded"
	StatusDuplicate = "duplicate"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

type Output struct {
	Status            string  `json:"calibrationStatus"`
	Reason            string  `json:"reason,omitempty"`
	OutcomeKey        string  `json:"outcomeKey,omitempty"`
	PredictionID      string  `json:"predictionId,omitempty"`
	ObservedWorkScore float64 `json:"observedWorkScore,omitempty"`
}
