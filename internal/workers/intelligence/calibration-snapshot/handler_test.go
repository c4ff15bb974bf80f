// internal/workers/intelligence/calibration-snapshot/handler_test.go
package calibrationsnapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/stores"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), stores.NewCalibrationStore(db), logger.NewNoOpLogger())
	return h, mock
}

func snapshotColumns() []string {
	return []string{
		"sample_count", "abs_error_sum", "squared_error_sum",
		"high_confidence_count", "high_confidence_abs_sum",
		"med_confidence_count", "med_confidence_abs_sum",
		"low_confidence_count", "low_confidence_abs_sum",
		"excellent_count", "good_count", "mixed_count", "poor_count", "updated_at",
	}
}

func TestExecute_DerivesDashboardMetrics(t *testing.T) {
	h, mock := setupHandler(t)

	updatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM intelligence_calibration_metrics").
		WillReturnRows(sqlmock.NewRows(snapshotColumns()).
			AddRow(10, 120.0, 2500.0, 4, 20.0, 4, 60.0, 2, 40.0, 3, 4, 2, 1, updatedAt))
	mock.ExpectQuery("SELECT (.+) FROM calibration_metrics_by_model").
		WillReturnRows(sqlmock.NewRows([]string{"model_version", "sample_count", "abs_error_sum"}).
			AddRow("v1", 6, 90.0).
			AddRow("v2", 4, 30.0))

	output, err := h.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), output.SampleCount)
	assert.InDelta(t, 12.0, output.MeanAbsError, 0.001)
	assert.InDelta(t, 15.811, output.RootMeanSquaredError, 0.001) // sqrt(2500/10)

	// high-confidence predictions should be the best-calibrated segment
	assert.InDelta(t, 5.0, output.ByConfidence["high"].MeanAbsError, 0.001)
	assert.InDelta(t, 15.0, output.ByConfidence["medium"].MeanAbsError, 0.001)
	assert.InDelta(t, 20.0, output.ByConfidence["low"].MeanAbsError, 0.001)

	assert.Equal(t, int64(3), output.QualityCounts["excellent"])
	assert.Equal(t, int64(1), output.QualityCounts["poor"])

	require.Len(t, output.ByModelVersion, 2)
	assert.InDelta(t, 15.0, output.ByModelVersion["v1"].MeanAbsError, 0.001)
	assert.InDelta(t, 7.5, output.ByModelVersion["v2"].MeanAbsError, 0.001)
	assert.Equal(t, updatedAt, output.UpdatedAt)
}

func TestExecute_EmptyAggregate(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM intelligence_calibration_metrics").
		WillReturnRows(sqlmock.NewRows(snapshotColumns()))

	output, err := h.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), output.SampleCount)
	assert.Zero(t, output.MeanAbsError)
	assert.Zero(t, output.RootMeanSquaredError)
	assert.Zero(t, output.ByConfidence["high"].SampleCount)
	assert.Empty(t, output.ByModelVersion)
}

func TestExecute_StoreFailurePropagates(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM intelligence_calibration_metrics").
		WillReturnError(errors.New("connection refused"))

	_, err := h.Execute(context.Background())
	assert.Error(t, err)
}
