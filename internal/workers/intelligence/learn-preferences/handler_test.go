// internal/workers/intelligence/learn-preferences/handler_test.go
package learnpreferences

import (
	"context"
	"database/sql"
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

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	h := NewHandler(LoadConfig(), stores.NewCheckinStore(db), c, logger.NewNoOpLogger())
	return h, mock, mr
}

func checkinRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "spot_id", "spot_name", "created_at", "tags", "caption",
		"wifi_speed", "noise_level", "busyness", "laptop_friendly", "outlets",
	})
}

func intPtr(n int) *int { return &n }

func makeCheckin(id, spotID, spotName string, noise, busyness int, createdAt time.Time) models.CheckinRecord {
	return models.CheckinRecord{
		ID:        id,
		UserID:    "user-1",
		SpotID:    spotID,
		SpotName:  spotName,
		CreatedAt: createdAt,
		Metrics: models.CheckinMetrics{
			NoiseLevel: intPtr(noise),
			Busyness:   intPtr(busyness),
		},
	}
}

// ==========================
// Profile Derivation Tests
// ==========================

func TestBuildProfile_QuietLibraryHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var history []models.CheckinRecord
	for i := 0; i < 10; i++ {
		history = append(history, makeCheckin("chk", "lib-a", "Library A", 1, 1, now.Add(-time.Duration(i)*24*time.Hour)))
	}

	profile := buildProfile("user-1", history, 10, now)

	assert.Equal(t, models.NoiseQuiet, profile.PreferredNoiseLevel)
	assert.Equal(t, models.BusynessEmpty, profile.PreferredBusyness)
	require.Len(t, profile.FrequentSpots, 1)
	assert.Equal(t, "lib-a", profile.FrequentSpots[0].SpotID)
	assert.Equal(t, 10, profile.FrequentSpots[0].Visits)
	assert.Contains(t, profile.PreferredSpotTypes, "library")
	assert.Equal(t, models.TimeMorning, profile.PreferredTimeOfDay)
}

func TestBuildProfile_Buckets(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name          string
		noiseLevels   []int
		expectedNoise string
	}{
		{"all quiet", []int{1, 2, 1}, models.NoiseQuiet},
		{"boundary low", []int{2, 2}, models.NoiseQuiet},
		{"mid range", []int{3, 3}, models.NoiseModerate},
		{"boundary high", []int{4, 4}, models.NoiseLively},
		{"all lively", []int{5, 5, 4}, models.NoiseLively},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []models.CheckinRecord
			for i, n := range tt.noiseLevels {
				history = append(history, makeCheckin("chk", "s", "Spot", n, 3, now.Add(-time.Duration(i)*time.Hour)))
			}
			profile := buildProfile("user-1", history, 10, now)
			assert.Equal(t, tt.expectedNoise, profile.PreferredNoiseLevel)
		})
	}
}

func TestBuildProfile_NoHistoryIsNeutral(t *testing.T) {
	now := time.Now().UTC()
	profile := buildProfile("user-1", nil, 10, now)

	assert.Empty(t, profile.PreferredNoiseLevel)
	assert.Empty(t, profile.PreferredBusyness)
	assert.Equal(t, models.ImportanceMedium, profile.WifiImportance)
	assert.Equal(t, models.ImportanceMedium, profile.OutletImportance)
	assert.Empty(t, profile.FrequentSpots)
	assert.Equal(t, now, profile.LastUpdated)
}

func TestBuildProfile_FrequentSpotsRequireTwoVisits(t *testing.T) {
	now := time.Now().UTC()
	history := []models.CheckinRecord{
		makeCheckin("1", "a", "Spot A", 3, 3, now),
		makeCheckin("2", "a", "Spot A", 3, 3, now.Add(-time.Hour)),
		makeCheckin("3", "b", "Spot B", 3, 3, now.Add(-2*time.Hour)),
	}

	profile := buildProfile("user-1", history, 10, now)
	require.Len(t, profile.FrequentSpots, 1)
	assert.Equal(t, "a", profile.FrequentSpots[0].SpotID)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_StoreErrorDegradesToNeutral(t *testing.T) {
	h, mock, _ := setupHandler(t)
	mock.ExpectQuery("SELECT (.+) FROM checkins").WillReturnError(sql.ErrConnDone)

	output := h.Execute(context.Background(), &Input{UserID: "user-1"})

	assert.Equal(t, "default", output.Source)
	require.NotNil(t, output.Profile)
	assert.Equal(t, models.ImportanceMedium, output.Profile.WifiImportance)
}

func TestExecute_RebuildsAndCaches(t *testing.T) {
	h, mock, mr := setupHandler(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM checkins").
		WillReturnRows(checkinRows().
			AddRow("chk-1", "user-1", "lib-a", "Library A", now, "{}", nil, nil, 1, 1, nil, nil).
			AddRow("chk-2", "user-1", "lib-a", "Library A", now.Add(-time.Hour), "{}", nil, nil, 1, 1, nil, nil))

	output := h.Execute(context.Background(), &Input{UserID: "user-1"})

	assert.Equal(t, "rebuilt", output.Source)
	assert.Equal(t, models.NoiseQuiet, output.Profile.PreferredNoiseLevel)
	assert.True(t, mr.Exists("prefs:user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_FreshCacheSkipsStore(t *testing.T) {
	h, _, _ := setupHandler(t)
	ctx := context.Background()

	profile := models.NeutralProfile("user-1")
	profile.PreferredNoiseLevel = models.NoiseQuiet
	require.NoError(t, h.cache.Set(ctx, "prefs:user-1", profile, time.Hour))

	output := h.Execute(ctx, &Input{UserID: "user-1"})

	assert.Equal(t, "cache", output.Source)
	assert.Equal(t, models.NoiseQuiet, output.Profile.PreferredNoiseLevel)
}

func TestExecute_ForceRefreshBypassesCache(t *testing.T) {
	h, mock, _ := setupHandler(t)
	ctx := context.Background()

	require.NoError(t, h.cache.Set(ctx, "prefs:user-1", models.NeutralProfile("user-1"), time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM checkins").WillReturnRows(checkinRows())

	output := h.Execute(ctx, &Input{UserID: "user-1", ForceRefresh: true})

	assert.Equal(t, "rebuilt", output.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}
