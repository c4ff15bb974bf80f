// internal/stores/checkins_test.go
package stores

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckinStore_RecentByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "spot_id", "spot_name", "created_at", "tags", "caption",
		"wifi_speed", "noise_level", "busyness", "laptop_friendly", "outlets",
	}).
		AddRow("chk-1", "user-1", "spot-1", "Quiet Library", now, "{productive}", "great spot", 5, 1, 1, true, "plenty").
		AddRow("chk-2", "user-1", "spot-2", "Loud Cafe", now.Add(-time.Hour), "{}", nil, nil, 5, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM checkins").
		WithArgs("user-1", 50).
		WillReturnRows(rows)

	store := NewCheckinStore(db)
	records, err := store.RecentByUser(context.Background(), "user-1", 50)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "chk-1", records[0].ID)
	require.NotNil(t, records[0].Metrics.NoiseLevel)
	assert.Equal(t, 1, *records[0].Metrics.NoiseLevel)
	assert.Equal(t, 5, records[0].Metrics.SignalCount())

	assert.Nil(t, records[1].Metrics.WifiSpeed)
	require.NotNil(t, records[1].Metrics.NoiseLevel)
	assert.Equal(t, 5, *records[1].Metrics.NoiseLevel)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinStore_CountByWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Now().Add(-7 * 24 * time.Hour)
	to := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("spot-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	store := NewCheckinStore(db)
	count, err := store.CountByWindow(context.Background(), "spot-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinStore_SpotsByUsers_EmptyBatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCheckinStore(db)
	results, err := store.SpotsByUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCheckinStore_AggregateBySpot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery("SELECT AVG").
		WithArgs("spot-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"avg_noise", "avg_wifi", "avg_busyness", "outlet_score", "count"}).
			AddRow(1.5, 4.2, 2.0, 0.75, 12))

	store := NewCheckinStore(db)
	agg, err := store.AggregateBySpot(context.Background(), "spot-1", since)
	require.NoError(t, err)
	require.NotNil(t, agg.AvgNoise)
	assert.InDelta(t, 1.5, *agg.AvgNoise, 0.001)
	assert.Equal(t, 12, agg.CheckinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
