// internal/stores/checkins.go
package stores

import (
	"context"
	"database/sql"
	"time"

	"perched-workers/internal/models"

	"github.com/lib/pq"
)

// SpotVisits counts how many sampled users visited a spot.
type SpotVisits struct {
	SpotID string
	Name   string
	Count  int
}

// SpotAggregate is the recent aggregate metrics for a spot.
type SpotAggregate struct {
	AvgNoise     *float64
	AvgWifi      *float64
	AvgBusyness  *float64
	OutletScore  *float64
	CheckinCount int
}

// CheckinStore reads the append-only check-in history.
type CheckinStore struct {
	db *sql.DB
}

func NewCheckinStore(db *sql.DB) *CheckinStore {
	return &CheckinStore{db: db}
}

const checkinColumns = `id, user_id, spot_id, spot_name, created_at, tags, caption,
	       wifi_speed, noise_level, busyness, laptop_friendly, outlets`

// RecentByUser returns a user's most recent check-ins, newest first.
func (s *CheckinStore) RecentByUser(ctx context.Context, userID string, limit int) ([]models.CheckinRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckins(rows)
}

// RecentBySpot returns a spot's check-ins since a cutoff, newest first.
func (s *CheckinStore) RecentBySpot(ctx context.Context, spotID string, since time.Time, limit int) ([]models.CheckinRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE spot_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`, spotID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckins(rows)
}

// CountByWindow counts a spot's check-ins in [from, to).
func (s *CheckinStore) CountByWindow(ctx context.Context, spotID string, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM checkins
		WHERE spot_id = $1 AND created_at >= $2 AND created_at < $3`,
		spotID, from, to).Scan(&count)
	return count, err
}

// ActiveSpots returns spots with any check-in since the cutoff.
func (s *CheckinStore) ActiveSpots(ctx context.Context, since time.Time, limit int) ([]SpotVisits, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT spot_id, MAX(spot_name), COUNT(*)
		FROM checkins
		WHERE created_at >= $1
		GROUP BY spot_id
		ORDER BY COUNT(*) DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SpotVisits
	for rows.Next() {
		var sv SpotVisits
		if err := rows.Scan(&sv.SpotID, &sv.Name, &sv.Count); err != nil {
			return nil, err
		}
		results = append(results, sv)
	}
	return results, rows.Err()
}

// UsersBySpot samples distinct users who checked in at a spot,
// excluding the requesting user.
func (s *CheckinStore) UsersBySpot(ctx context.Context, spotID, excludeUserID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM checkins
		WHERE spot_id = $1 AND user_id <> $2
		LIMIT $3`, spotID, excludeUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SpotsByUsers aggregates spot visit counts over a batch of users.
// Callers cap the batch size; this issues a single grouped query per batch.
func (s *CheckinStore) SpotsByUsers(ctx context.Context, userIDs []string) ([]SpotVisits, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT spot_id, MAX(spot_name), COUNT(DISTINCT user_id)
		FROM checkins
		WHERE user_id = ANY($1)
		GROUP BY spot_id`, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SpotVisits
	for rows.Next() {
		var sv SpotVisits
		if err := rows.Scan(&sv.SpotID, &sv.Name, &sv.Count); err != nil {
			return nil, err
		}
		results = append(results, sv)
	}
	return results, rows.Err()
}

// SpotsVisitedByUser returns the set of spots a user has ever checked in at.
func (s *CheckinStore) SpotsVisitedByUser(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT spot_id FROM checkins WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visited := make(map[string]bool)
	for rows.Next() {
		var spotID string
		if err := rows.Scan(&spotID); err != nil {
			return nil, err
		}
		visited[spotID] = true
	}
	return visited, rows.Err()
}

// AggregateBySpot computes recent average metrics for one spot.
// Outlet enum values are averaged on their [0,1] ratio.
func (s *CheckinStore) AggregateBySpot(ctx context.Context, spotID string, since time.Time) (*SpotAggregate, error) {
	var agg SpotAggregate
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(noise_level), AVG(wifi_speed), AVG(busyness),
		       AVG(CASE outlets WHEN 'plenty' THEN 1.0 WHEN 'limited' THEN 0.5 WHEN 'none' THEN 0.0 END),
		       COUNT(*)
		FROM checkins
		WHERE spot_id = $1 AND created_at >= $2`,
		spotID, since).Scan(&agg.AvgNoise, &agg.AvgWifi, &agg.AvgBusyness, &agg.OutletScore, &agg.CheckinCount)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func scanCheckins(rows *sql.Rows) ([]models.CheckinRecord, error) {
	var records []models.CheckinRecord
	for rows.Next() {
		var rec models.CheckinRecord
		var tags pq.StringArray
		var caption sql.NullString
		var wifi, noise, busyness sql.NullInt64
		var laptop sql.NullBool
		var outlets sql.NullString

		err := rows.Scan(&rec.ID, &rec.UserID, &rec.SpotID, &rec.SpotName, &rec.CreatedAt,
			&tags, &caption, &wifi, &noise, &busyness, &laptop, &outlets)
		if err != nil {
			return nil, err
		}

		rec.Tags = tags
		rec.Caption = caption.String
		if wifi.Valid {
			v := int(wifi.Int64)
			rec.Metrics.WifiSpeed = &v
		}
		if noise.Valid {
			v := int(noise.Int64)
			rec.Metrics.NoiseLevel = &v
		}
		if busyness.Valid {
			v := int(busyness.Int64)
			rec.Metrics.Busyness = &v
		}
		if laptop.Valid {
			v := laptop.Bool
			rec.Metrics.LaptopFriendly = &v
		}
		if outlets.Valid {
			if o := models.NormalizeOutlets(outlets.String); o != nil {
				rec.Metrics.Outlets = o
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
