// internal/stores/calibration.go
package stores

import (
	"context"
	"database/sql"

	"perched-workers/internal/models"
)

// CalibrationStore maintains the singleton rolling metrics row plus the
// per-model-version side table. All mutations are commuting increments;
// the row is never read back, modified, and rewritten.
type CalibrationStore struct {
	db *sql.DB
}

func NewCalibrationStore(db *sql.DB) *CalibrationStore {
	return &CalibrationStore{db: db}
}

// ApplyOutcome folds one outcome into the rolling aggregate. Bucket deltas
// are computed here so the SQL stays a flat additive update.
func (s *CalibrationStore) ApplyOutcome(ctx context.Context, o *models.IntelligenceOutcome) error {
	var highCount, medCount, lowCount int
	var highAbs, medAbs, lowAbs float64
	switch o.ConfidenceBucket {
	case "high":
		highCount, highAbs = 1, o.AbsError
	case "medium":
		medCount, medAbs = 1, o.AbsError
	default:
		lowCount, lowAbs = 1, o.AbsError
	}

	var excellent, good, mixed, poor int
	switch o.QualityLabel {
	case models.QualityExcellent:
		excellent = 1
	case models.QualityGood:
		good = 1
	case models.QualityPoor:
		poor = 1
	default:
		mixed = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intelligence_calibration_metrics (
			id, sample_count, abs_error_sum, squared_error_sum,
			high_confidence_count, high_confidence_abs_sum,
			med_confidence_count, med_confidence_abs_sum,
			low_confidence_count, low_confidence_abs_sum,
			excellent_count, good_count, mixed_count, poor_count, updated_at
		) VALUES ('current', 1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			sample_count = intelligence_calibration_metrics.sample_count + 1,
			abs_error_sum = intelligence_calibration_metrics.abs_error_sum + EXCLUDED.abs_error_sum,
			squared_error_sum = intelligence_calibration_metrics.squared_error_sum + EXCLUDED.squared_error_sum,
			high_confidence_count = intelligence_calibration_metrics.high_confidence_count + EXCLUDED.high_confidence_count,
			high_confidence_abs_sum = intelligence_calibration_metrics.high_confidence_abs_sum + EXCLUDED.high_confidence_abs_sum,
			med_confidence_count = intelligence_calibration_metrics.med_confidence_count + EXCLUDED.med_confidence_count,
			med_confidence_abs_sum = intelligence_calibration_metrics.med_confidence_abs_sum + EXCLUDED.med_confidence_abs_sum,
			low_confidence_count = intelligence_calibration_metrics.low_confidence_count + EXCLUDED.low_confidence_count,
			low_confidence_abs_sum = intelligence_calibration_metrics.low_confidence_abs_sum + EXCLUDED.low_confidence_abs_sum,
			excellent_count = intelligence_calibration_metrics.excellent_count + EXCLUDED.excellent_count,
			good_count = intelligence_calibration_metrics.good_count + EXCLUDED.good_count,
			mixed_count = intelligence_calibration_metrics.mixed_count + EXCLUDED.mixed_count,
			poor_count = intelligence_calibration_metrics.poor_count + EXCLUDED.poor_count,
			updated_at = NOW()`,
		o.AbsError, o.SquaredError,
		highCount, highAbs, medCount, medAbs, lowCount, lowAbs,
		excellent, good, mixed, poor)
	if err != nil {
		return err
	}

	if o.ModelVersion == "" {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calibration_metrics_by_model (model_version, sample_count, abs_error_sum)
		VALUES ($1, 1, $2)
		ON CONFLICT (model_version) DO UPDATE SET
			sample_count = calibration_metrics_by_model.sample_count + 1,
			abs_error_sum = calibration_metrics_by_model.abs_error_sum + EXCLUDED.abs_error_sum`,
		o.ModelVersion, o.AbsError)
	return err
}

// Snapshot reads the current aggregate for the ops dashboard.
// An absent row (no outcomes recorded yet) yields the zero aggregate.
func (s *CalibrationStore) Snapshot(ctx context.Context) (*models.CalibrationMetrics, error) {
	var m models.CalibrationMetrics
	err := s.db.QueryRowContext(ctx, `
		SELECT sample_count, abs_error_sum, squared_error_sum,
		       high_confidence_count, high_confidence_abs_sum,
		       med_confidence_count, med_confidence_abs_sum,
		       low_confidence_count, low_confidence_abs_sum,
		       excellent_count, good_count, mixed_count, poor_count, updated_at
		FROM intelligence_calibration_metrics
		WHERE id = 'current'`).Scan(
		&m.SampleCount, &m.AbsErrorSum, &m.SquaredErrorSum,
		&m.HighConfidenceCount, &m.HighConfidenceAbsSum,
		&m.MedConfidenceCount, &m.MedConfidenceAbsSum,
		&m.LowConfidenceCount, &m.LowConfidenceAbsSum,
		&m.ExcellentCount, &m.GoodCount, &m.MixedCount, &m.PoorCount, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.CalibrationMetrics{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model_version, sample_count, abs_error_sum
		FROM calibration_metrics_by_model
		ORDER BY model_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m.ByModelVersion = make(map[string]models.ModelVersionMetrics)
	for rows.Next() {
		var version string
		var mv models.ModelVersionMetrics
		if err := rows.Scan(&version, &mv.SampleCount, &mv.AbsErrorSum); err != nil {
			return nil, err
		}
		m.ByModelVersion[version] = mv
	}
	return &m, rows.Err()
}
