// internal/workers/discovery/score-spots/handler_test.go
package scorespots

import (
	"context"
	"errors"
	"testing"
	"time"

	"perched-workers/internal/common/cache"
	"perched-workers/internal/common/logger"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSpotFinder struct {
	candidates []models.SpotCandidate
	err        error
}

func (f *fakeSpotFinder) SearchNearby(ctx context.Context, search stores.SpotSearch) ([]models.SpotCandidate, error) {
	return f.candidates, f.err
}

type fakeAffinityReader struct {
	affinities map[string]float64
	err        error
}

func (f *fakeAffinityReader) All(ctx context.Context, userID string) (map[string]float64, error) {
	return f.affinities, f.err
}

func floatPtr(f float64) *float64 { return &f }

func quietProfile() *models.UserPreferenceProfile {
	return &models.UserPreferenceProfile{
		UserID:              "user-1",
		PreferredNoiseLevel: models.NoiseQuiet,
		PreferredBusyness:   models.BusynessEmpty,
		PreferredSpotTypes:  []string{"library"},
		PreferredTimeOfDay:  models.TimeMorning,
		WifiImportance:      models.ImportanceMedium,
		OutletImportance:    models.ImportanceMedium,
		FrequentSpots:       []models.FrequentSpot{{SpotID: "lib-a", Name: "Library A", Visits: 10}},
		LastUpdated:         time.Now().UTC(),
	}
}

func setupHandler(t *testing.T, finder SpotFinder, affinity AffinityReader) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	h := NewHandler(LoadConfig(), stores.NewCheckinStore(db), finder, affinity, c, logger.NewNoOpLogger())
	return h, mock
}

// ==========================
// Scoring Tests
// ==========================

func TestScoreSpot_QuietLibraryForQuietUser(t *testing.T) {
	// 10 prior quiet check-ins at Library A: noise bonus 17.5, category +15,
	// frequency +10, popularity +1 on a base of 50.
	spot := models.SpotCandidate{
		PlaceID:      "lib-a",
		Name:         "Library A",
		Category:     "library",
		AvgNoise:     floatPtr(1),
		CheckinCount: 10,
	}

	rec := scoreSpot(spot, quietProfile(), ScoreContext{}, nil)

	assert.GreaterOrEqual(t, rec.Score, 80)
	assert.Contains(t, rec.Reasons, "Quiet, like you prefer")
	assert.Contains(t, rec.Reasons, "One of your regular spots")
}

func TestScoreSpot_Deterministic(t *testing.T) {
	spot := models.SpotCandidate{PlaceID: "s-1", Category: "cafe", AvgNoise: floatPtr(2), DistanceKm: 1.4, CheckinCount: 33}
	profile := quietProfile()
	sctx := ScoreContext{TimeOfDay: models.TimeMorning, Rainy: true}
	affinity := map[string]float64{"cafe": 0.6}

	first := scoreSpot(spot, profile, sctx, affinity)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scoreSpot(spot, profile, sctx, affinity))
	}
}

func TestScoreSpot_AlwaysInRange(t *testing.T) {
	tests := []struct {
		name string
		spot models.SpotCandidate
		ctx  ScoreContext
	}{
		{"negative distance", models.SpotCandidate{DistanceKm: -50}, ScoreContext{}},
		{"huge distance", models.SpotCandidate{DistanceKm: 5000}, ScoreContext{}},
		{"missing everything", models.SpotCandidate{}, ScoreContext{}},
		{"everything maxed", models.SpotCandidate{
			PlaceID:      "lib-a",
			Category:     "library",
			AvgNoise:     floatPtr(1.5),
			AvgWifi:      floatPtr(5),
			OutletScore:  floatPtr(1),
			CheckinCount: 100000,
			Indoor:       true,
		}, ScoreContext{TimeOfDay: models.TimeMorning, Rainy: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := scoreSpot(tt.spot, quietProfile(), tt.ctx, map[string]float64{"library": 5})
			assert.GreaterOrEqual(t, rec.Score, 0)
			assert.LessOrEqual(t, rec.Score, 100)
			assert.NotEmpty(t, rec.Reasons)
		})
	}
}

func TestScoreSpot_AffinityMultiplierCanExceedMidrange(t *testing.T) {
	spot := models.SpotCandidate{PlaceID: "c-1", Category: "cafe", AvgNoise: floatPtr(1.5)}
	base := scoreSpot(spot, quietProfile(), ScoreContext{}, nil)
	boosted := scoreSpot(spot, quietProfile(), ScoreContext{}, map[string]float64{"cafe": 1})

	assert.Greater(t, boosted.Score, base.Score)
}

func TestScoreSpot_FallbackReason(t *testing.T) {
	rec := scoreSpot(models.SpotCandidate{PlaceID: "x", DistanceKm: 3}, models.NeutralProfile("u"), ScoreContext{}, nil)
	assert.Equal(t, []string{"Based on your activity"}, rec.Reasons)
}

func TestRankSpots_StableTopTen(t *testing.T) {
	var candidates []models.SpotCandidate
	for i := 0; i < 15; i++ {
		candidates = append(candidates, models.SpotCandidate{PlaceID: string(rune('a' + i))})
	}

	recs := rankSpots(candidates, models.NeutralProfile("u"), ScoreContext{}, nil, 10)

	require.Len(t, recs, 10)
	// identical scores keep candidate order
	assert.Equal(t, "a", recs[0].PlaceID)
	assert.Equal(t, "j", recs[9].PlaceID)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_SearchFailureIsEmptyNotError(t *testing.T) {
	h, _ := setupHandler(t, &fakeSpotFinder{err: errors.New("es down")}, &fakeAffinityReader{})

	output := h.Execute(context.Background(), &Input{UserID: "user-1", Profile: quietProfile()})

	assert.Empty(t, output.Recommendations)
	assert.False(t, output.FromCache)
}

func TestExecute_RanksAndCaches(t *testing.T) {
	finder := &fakeSpotFinder{candidates: []models.SpotCandidate{
		{PlaceID: "lib-a", Name: "Library A", Category: "library"},
		{PlaceID: "bar-1", Name: "Night Bar", Category: "bar"},
	}}
	h, mock := setupHandler(t, finder, &fakeAffinityReader{})

	// one aggregate query per candidate
	aggRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"avg_noise", "avg_wifi", "avg_busyness", "outlet_score", "count"}).
			AddRow(nil, nil, nil, nil, 0)
	}
	mock.ExpectQuery("SELECT AVG").WillReturnRows(aggRows())
	mock.ExpectQuery("SELECT AVG").WillReturnRows(aggRows())

	output := h.Execute(context.Background(), &Input{UserID: "user-1", Lat: 40.75, Lng: -73.99, Profile: quietProfile()})

	require.Len(t, output.Recommendations, 2)
	assert.Equal(t, "lib-a", output.Recommendations[0].PlaceID)

	// second call is served from the recommendation cache
	cached := h.Execute(context.Background(), &Input{UserID: "user-1", Lat: 40.75, Lng: -73.99, Profile: quietProfile()})
	assert.True(t, cached.FromCache)
	assert.Len(t, cached.Recommendations, 2)
}

func TestExecute_AffinityFailureDegrades(t *testing.T) {
	finder := &fakeSpotFinder{candidates: []models.SpotCandidate{{PlaceID: "c-1", Category: "cafe"}}}
	h, mock := setupHandler(t, finder, &fakeAffinityReader{err: errors.New("redis down")})

	mock.ExpectQuery("SELECT AVG").
		WillReturnRows(sqlmock.NewRows([]string{"avg_noise", "avg_wifi", "avg_busyness", "outlet_score", "count"}).
			AddRow(nil, nil, nil, nil, 0))

	output := h.Execute(context.Background(), &Input{UserID: "user-1", Profile: quietProfile()})
	require.Len(t, output.Recommendations, 1)
}
