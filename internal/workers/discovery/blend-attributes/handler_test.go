// internal/workers/discovery/blend-attributes/handler_test.go
package blendattributes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHandler(LoadConfig(), stores.NewCheckinStore(db), logger.NewNoOpLogger()), mock
}

func liveAgg(value float64, count int) *liveAggregate {
	if count == 0 {
		return nil
	}
	return &liveAggregate{value: value, count: count}
}

// ==========================
// Blend Decision Tests
// ==========================

func TestBlend_ProvenanceDecision(t *testing.T) {
	inferred := &InferredAttribute{Value: 3, Confidence: 0.8}

	tests := []struct {
		name               string
		live               *liveAggregate
		expectedProvenance string
		expectedValue      float64
	}{
		{"no live data shows inferred", liveAgg(0, 0), "inferred", 3},
		{"ten checkins is live", liveAgg(2, 10), "live", 2},       // w_live = 0.9 > 0.5
		{"five checkins is blended", liveAgg(2, 5), "blended", 2}, // w_live = 0.5, not > 0.5
		{"six checkins is live", liveAgg(2, 6), "live", 2},        // w_live = 0.6
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := blend(inferred, tt.live, 0.9)
			require.NotNil(t, out)
			assert.Equal(t, tt.expectedProvenance, out.Provenance)
			assert.InDelta(t, tt.expectedValue, out.Value, 0.001)
		})
	}
}

func TestBlend_LiveWeightCapNeverFullyOverrides(t *testing.T) {
	// even a flood of check-ins leaves w_live at the cap
	out := blend(&InferredAttribute{Value: 3}, liveAgg(2, 1000), 0.9)
	assert.Equal(t, "live", out.Provenance)

	// with a cap at 0.5 nothing can cross the live threshold
	capped := blend(&InferredAttribute{Value: 3}, liveAgg(2, 1000), 0.5)
	assert.Equal(t, "blended", capped.Provenance)
}

func TestBlend_InferredValueShownOnlyOnDisagreement(t *testing.T) {
	agreeing := blend(&InferredAttribute{Value: 2}, liveAgg(2, 3), 0.9)
	assert.Equal(t, "blended", agreeing.Provenance)
	assert.Nil(t, agreeing.InferredValue)

	disagreeing := blend(&InferredAttribute{Value: 4}, liveAgg(2, 3), 0.9)
	require.NotNil(t, disagreeing.InferredValue)
	assert.InDelta(t, 4, *disagreeing.InferredValue, 0.001)
}

func TestBlend_NothingToShow(t *testing.T) {
	assert.Nil(t, blend(nil, nil, 0.9))
}

// ==========================
// Weighted Average Tests
// ==========================

func intPtr(n int) *int { return &n }

func TestWeightedAverage_RecencyDecay(t *testing.T) {
	now := time.Now().UTC()
	halfLife := 84 * time.Hour

	fresh := models.CheckinRecord{CreatedAt: now, Metrics: models.CheckinMetrics{NoiseLevel: intPtr(5)}}
	// one half-life old: weight e^-1
	old := models.CheckinRecord{CreatedAt: now.Add(-halfLife), Metrics: models.CheckinMetrics{NoiseLevel: intPtr(1)}}

	agg := weightedAverage([]models.CheckinRecord{fresh, old}, now, halfLife, noiseMetric)
	require.NotNil(t, agg)
	assert.Equal(t, 2, agg.count)
	// the fresh value dominates: (5 + 1*e^-1)/(1 + e^-1) ~ 3.9
	assert.Greater(t, agg.value, 3.5)
	assert.Less(t, agg.value, 5.0)
}

func TestWeightedAverage_AbstainingRecordsIgnored(t *testing.T) {
	now := time.Now().UTC()
	records := []models.CheckinRecord{
		{CreatedAt: now, Metrics: models.CheckinMetrics{NoiseLevel: intPtr(3)}},
		{CreatedAt: now}, // no noise reported
	}
	agg := weightedAverage(records, now, 84*time.Hour, noiseMetric)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.count)
	assert.InDelta(t, 3, agg.value, 0.001)
}

func TestWeightedAverage_EmptyIsNil(t *testing.T) {
	assert.Nil(t, weightedAverage(nil, time.Now(), 84*time.Hour, noiseMetric))
}

// ==========================
// Execute Tests
// ==========================

func checkinRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "spot_id", "spot_name", "created_at", "tags", "caption",
		"wifi_speed", "noise_level", "busyness", "laptop_friendly", "outlets",
	})
}

func TestExecute_BusynessIsLiveOnly(t *testing.T) {
	h, mock := setupHandler(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM checkins").
		WillReturnRows(checkinRows().
			AddRow("chk-1", "u1", "spot-1", "Spot", now, "{}", nil, nil, nil, 4, nil, nil))

	output := h.Execute(context.Background(), &Input{SpotID: "spot-1"}, now)

	require.NotNil(t, output.Busyness)
	assert.Equal(t, "live", output.Busyness.Provenance)
	assert.Nil(t, output.Noise) // nothing inferred, nothing live
}

func TestExecute_StoreFailureShowsInferredOnly(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM checkins").WillReturnError(sql.ErrConnDone)

	output := h.Execute(context.Background(), &Input{
		SpotID:        "spot-1",
		InferredNoise: &InferredAttribute{Value: 2, Confidence: 0.7},
	}, time.Now().UTC())

	require.NotNil(t, output.Noise)
	assert.Equal(t, "inferred", output.Noise.Provenance)
	assert.Nil(t, output.Busyness)
}
