// internal/stores/outcomes.go
package stores

import (
	"context"
	"database/sql"

	"perched-workers/internal/models"
)

// OutcomeStore persists calibration outcomes. The primary key is the
// sanitized checkinId_predictionId pair, which makes writes idempotent.
type OutcomeStore struct {
	db *sql.DB
}

func NewOutcomeStore(db *sql.DB) *OutcomeStore {
	return &OutcomeStore{db: db}
}

// Insert writes an outcome, returning false when the key already exists.
// Duplicate processing of the same (checkin, prediction) pair is expected
// under redelivery; callers must only increment metrics when this returns true.
func (s *OutcomeStore) Insert(ctx context.Context, o *models.IntelligenceOutcome) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO intelligence_outcomes (
			outcome_key, checkin_id, prediction_id, place_id, user_id,
			model_version, confidence_bucket, predicted_score, observed_work_score,
			signed_error, abs_error, squared_error,
			quality_label, quality_score, quality_confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (outcome_key) DO NOTHING`,
		o.Key, o.CheckinID, o.PredictionID, o.PlaceID, o.UserID,
		o.ModelVersion, o.ConfidenceBucket, o.PredictedScore, o.ObservedWorkScore,
		o.SignedError, o.AbsError, o.SquaredError,
		o.QualityLabel, o.QualityScore, o.QualityConfidence, o.CreatedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
