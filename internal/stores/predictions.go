// internal/stores/predictions.go
package stores

import (
	"context"
	"database/sql"
	"time"

	"perched-workers/internal/models"
)

// PredictionStore reads upstream intelligence predictions.
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// InWindow returns predictions created in [from, to], newest first.
// The calibration tracker scores these as link candidates.
func (s *PredictionStore) InWindow(ctx context.Context, from, to time.Time) ([]models.IntelligencePrediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, place_id, place_name, user_id, work_score, confidence, model_version, created_at
		FROM intelligence_predictions
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []models.IntelligencePrediction
	for rows.Next() {
		var p models.IntelligencePrediction
		var placeName, userID sql.NullString
		err := rows.Scan(&p.ID, &p.PlaceID, &placeName, &userID,
			&p.WorkScore, &p.Confidence, &p.ModelVersion, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		p.PlaceName = placeName.String
		p.UserID = userID.String
		preds = append(preds, p)
	}
	return preds, rows.Err()
}
