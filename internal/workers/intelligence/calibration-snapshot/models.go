// internal/workers/intelligence/calibration-snapshot/models.go
package calibrationsnapshot

import "time"

// Input is empty today; the snapshot always covers the full aggregate.
type Input struct{}

// BucketReport is one segment of the calibration aggregate with its
// derived mean absolute error.
type BucketReport struct {
	SampleCount  int64   `json:"sampleCount"`
	MeanAbsError float64 `json:"meanAbsError"`
}

type Output struct {
	SampleCount          int64                   `json:"sampleCount"`
	MeanAbsError         float64                 `json:"meanAbsError"`
	RootMeanSquaredError float64                 `json:"rootMeanSquaredError"`
	ByConfidence         map[string]BucketReport `json:"byConfidence"`
	QualityCounts        map[string]int64        `json:"qualityCounts"`
	ByModelVersion       map[string]BucketReport `json:"byModelVersion,omitempty"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}
