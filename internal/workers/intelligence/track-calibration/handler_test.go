// internal/workers/intelligence/track-calibration/handler_test.go
package trackcalibration

import (
	"context"
	"errors"
	"testing"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/telemetry"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeOutcomeWriter struct {
	inserted bool
	err      error
	written  []*models.IntelligenceOutcome
}

func (f *fakeOutcomeWriter) Insert(ctx context.Context, o *models.IntelligenceOutcome) (bool, error) {
	f.written = append(f.written, o)
	return f.inserted, f.err
}

type fakeMetricsApplier struct {
	applied []*models.IntelligenceOutcome
	err     error
}

func (f *fakeMetricsApplier) ApplyOutcome(ctx context.Context, o *models.IntelligenceOutcome) error {
	f.applied = append(f.applied, o)
	return f.err
}

func setupHandler(t *testing.T, outcomes *fakeOutcomeWriter, applier *fakeMetricsApplier) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), stores.NewPredictionStore(db), outcomes, applier, telemetry.NopPublisher{}, logger.NewNoOpLogger())
	return h, mock
}

func predictionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "place_id", "place_name", "user_id", "work_score", "confidence", "model_version", "created_at",
	})
}

func rawCheckin(ts time.Time) models.RawCheckin {
	return models.RawCheckin{
		ID:        "chk-1",
		UserID:    "user-1",
		SpotID:    "spot-1",
		SpotName:  "Library A",
		Timestamp: ts.Format(time.RFC3339),
		WifiSpeed: float64(5),
		Noise:     float64(1),
	}
}

// ==========================
// Observed Score Tests
// ==========================

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestObservedWorkScore(t *testing.T) {
	outlets := models.OutletsPlenty
	tests := []struct {
		name            string
		metrics         models.CheckinMetrics
		expectedScore   float64
		expectedSignals int
	}{
		{"no signals", models.CheckinMetrics{}, 0, 0},
		{"one signal only", models.CheckinMetrics{WifiSpeed: intPtr(5)}, 100, 1},
		{"perfect workspace", models.CheckinMetrics{
			WifiSpeed:      intPtr(5),
			NoiseLevel:     intPtr(1),
			Busyness:       intPtr(1),
			LaptopFriendly: boolPtr(true),
			Outlets:        &outlets,
		}, 100, 5},
		{"worst workspace", models.CheckinMetrics{
			WifiSpeed:  intPtr(1),
			NoiseLevel: intPtr(5),
			Busyness:   intPtr(5),
		}, 0, 3},
		{"fast wifi loud room", models.CheckinMetrics{
			WifiSpeed:  intPtr(5),
			NoiseLevel: intPtr(5),
		}, 58.333, 2}, // (1*.35 + 0*.25) / .60
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, signals := observedWorkScore(tt.metrics)
			assert.InDelta(t, tt.expectedScore, score, 0.01)
			assert.Equal(t, tt.expectedSignals, signals)
		})
	}
}

// ==========================
// Prediction Matching Tests
// ==========================

func TestMatchPrediction(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	checkin := models.CheckinRecord{
		ID: "chk-1", UserID: "user-1", SpotID: "spot-1", SpotName: "Library A", CreatedAt: now,
	}
	span := 5 * time.Hour

	t.Run("placeId beats name match", func(t *testing.T) {
		preds := []models.IntelligencePrediction{
			{ID: "by-name", PlaceName: "Library A", CreatedAt: now.Add(-time.Hour)},
			{ID: "by-place", PlaceID: "spot-1", CreatedAt: now.Add(-time.Hour)},
		}
		best := matchPrediction(checkin, preds, span)
		require.NotNil(t, best)
		assert.Equal(t, "by-place", best.ID)
	})

	t.Run("same user breaks place tie", func(t *testing.T) {
		preds := []models.IntelligencePrediction{
			{ID: "other-user", PlaceID: "spot-1", UserID: "user-9", CreatedAt: now.Add(-time.Hour)},
			{ID: "same-user", PlaceID: "spot-1", UserID: "user-1", CreatedAt: now.Add(-time.Hour)},
		}
		best := matchPrediction(checkin, preds, span)
		require.NotNil(t, best)
		assert.Equal(t, "same-user", best.ID)
	})

	t.Run("ties go to most recent", func(t *testing.T) {
		preds := []models.IntelligencePrediction{
			{ID: "older", PlaceID: "spot-1", CreatedAt: now.Add(-6 * time.Hour)},
			{ID: "newer", PlaceID: "spot-1", CreatedAt: now.Add(-6 * time.Hour)},
		}
		// recency bonus is zero for both at the span edge; equal scores
		best := matchPrediction(checkin, preds, span)
		require.NotNil(t, best)
		assert.Equal(t, "older", best.ID) // identical timestamps keep first
	})

	t.Run("earlier prediction outscores later one", func(t *testing.T) {
		preds := []models.IntelligencePrediction{
			{ID: "after", PlaceID: "spot-1", CreatedAt: now.Add(10 * time.Minute)},
			{ID: "before", PlaceID: "spot-1", CreatedAt: now.Add(-10 * time.Minute)},
		}
		best := matchPrediction(checkin, preds, span)
		require.NotNil(t, best)
		assert.Equal(t, "before", best.ID)
	})

	t.Run("nothing relevant means no link", func(t *testing.T) {
		preds := []models.IntelligencePrediction{
			{ID: "unrelated", PlaceID: "spot-9", PlaceName: "Elsewhere", UserID: "user-9", CreatedAt: now.Add(-10 * time.Hour)},
		}
		assert.Nil(t, matchPrediction(checkin, preds, span))
	})

	t.Run("empty candidate set", func(t *testing.T) {
		assert.Nil(t, matchPrediction(checkin, nil, span))
	})
}

// ==========================
// Outcome Quality Tests
// ==========================

func TestOutcomeQuality(t *testing.T) {
	tests := []struct {
		name          string
		observed      float64
		tags          []string
		caption       string
		expectedLabel string
	}{
		{"high score no annotations", 85, nil, "", models.QualityExcellent},
		{"good band", 70, nil, "", models.QualityGood},
		{"mixed band", 50, nil, "", models.QualityMixed},
		{"poor band", 30, nil, "", models.QualityPoor},
		{"positive tags lift into excellent", 74, []string{"productive", "quiet"}, "", models.QualityExcellent},
		{"negative caption drags down", 50, nil, "way too crowded and loud", models.QualityPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, label := outcomeQuality(tt.observed, tt.tags, tt.caption)
			assert.Equal(t, tt.expectedLabel, label)
		})
	}
}

func TestOutcomeQuality_DeltasClamped(t *testing.T) {
	manyNegative := []string{"loud", "crowded", "noisy", "cramped", "no-outlets", "slow-wifi"}
	// 6 tags at -5 each would be -30; the tag delta clamps at -14
	score, _ := outcomeQuality(60, manyNegative, "")
	assert.InDelta(t, 46, score, 0.001)
}

func TestQualityConfidence(t *testing.T) {
	assert.InDelta(t, 0.4, qualityConfidence(2, nil, ""), 0.001)
	assert.InDelta(t, 0.9, qualityConfidence(5, []string{"quiet"}, "nice"), 0.001)
	assert.InDelta(t, 0.95, qualityConfidence(9, []string{"quiet"}, "nice"), 0.001) // clamped
	assert.InDelta(t, 0.3, qualityConfidence(1, nil, ""), 0.001)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_SingleSignalIsSkipped(t *testing.T) {
	outcomes := &fakeOutcomeWriter{}
	h, _ := setupHandler(t, outcomes, &fakeMetricsApplier{})

	input := &Input{Checkin: models.RawCheckin{
		ID: "chk-1", UserID: "user-1", SpotID: "spot-1",
		Timestamp: time.Now().Format(time.RFC3339),
		WifiSpeed: float64(5),
	}}

	output := h.Execute(context.Background(), input)

	assert.Equal(t, StatusSkipped, output.Status)
	assert.Empty(t, outcomes.written)
}

func TestExecute_RecordsOutcome(t *testing.T) {
	outcomes := &fakeOutcomeWriter{inserted: true}
	applier := &fakeMetricsApplier{}
	h, mock := setupHandler(t, outcomes, applier)

	now := time.Now().UTC().Truncate(time.Second)
	mock.ExpectQuery("SELECT (.+) FROM intelligence_predictions").
		WillReturnRows(predictionRows().
			AddRow("pred-1", "spot-1", "Library A", "user-1", 75.0, 0.85, "v2", now.Add(-time.Hour)))

	output := h.Execute(context.Background(), &Input{Checkin: rawCheckin(now)})

	require.Equal(t, StatusRecorded, output.Status)
	assert.Equal(t, "chk-1_pred-1", output.OutcomeKey)
	require.Len(t, outcomes.written, 1)
	require.Len(t, applier.applied, 1)

	written := outcomes.written[0]
	assert.Equal(t, "high", written.ConfidenceBucket)
	assert.Equal(t, "v2", written.ModelVersion)
	// wifi 5 + noise 1 observes a perfect 100; prediction said 75
	assert.InDelta(t, 100, written.ObservedWorkScore, 0.01)
	assert.InDelta(t, 25, written.AbsError, 0.01)
	assert.InDelta(t, -25, written.SignedError, 0.01)
}

func TestExecute_DuplicateDoesNotIncrementMetrics(t *testing.T) {
	outcomes := &fakeOutcomeWriter{inserted: false} // key already present
	applier := &fakeMetricsApplier{}
	h, mock := setupHandler(t, outcomes, applier)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM intelligence_predictions").
		WillReturnRows(predictionRows().
			AddRow("pred-1", "spot-1", "Library A", "user-1", 75.0, 0.85, "v2", now.Add(-time.Hour)))

	output := h.Execute(context.Background(), &Input{Checkin: rawCheckin(now)})

	assert.Equal(t, StatusDuplicate, output.Status)
	assert.Empty(t, applier.applied)
}

func TestExecute_NoCandidatesIsSkipped(t *testing.T) {
	outcomes := &fakeOutcomeWriter{}
	h, mock := setupHandler(t, outcomes, &fakeMetricsApplier{})

	mock.ExpectQuery("SELECT (.+) FROM intelligence_predictions").
		WillReturnRows(predictionRows())

	output := h.Execute(context.Background(), &Input{Checkin: rawCheckin(time.Now().UTC())})

	assert.Equal(t, StatusSkipped, output.Status)
	assert.Equal(t, "no matching prediction", output.Reason)
	assert.Empty(t, outcomes.written)
}

func TestExecute_StoreFailureIsSoft(t *testing.T) {
	outcomes := &fakeOutcomeWriter{}
	h, mock := setupHandler(t, outcomes, &fakeMetricsApplier{})

	mock.ExpectQuery("SELECT (.+) FROM intelligence_predictions").
		WillReturnError(errors.New("connection refused"))

	output := h.Execute(context.Background(), &Input{Checkin: rawCheckin(time.Now().UTC())})

	assert.Equal(t, StatusFailed, output.Status)
}

func TestExecute_OutcomeWriteFailureIsSoft(t *testing.T) {
	outcomes := &fakeOutcomeWriter{err: errors.New("disk full")}
	applier := &fakeMetricsApplier{}
	h, mock := setupHandler(t, outcomes, applier)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM intelligence_predictions").
		WillReturnRows(predictionRows().
			AddRow("pred-1", "spot-1", "Library A", "user-1", 75.0, 0.85, "v2", now.Add(-time.Hour)))

	output := h.Execute(context.Background(), &Input{Checkin: rawCheckin(now)})

	assert.Equal(t, StatusFailed, output.Status)
	assert.Empty(t, applier.applied)
}
