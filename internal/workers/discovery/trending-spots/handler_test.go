// internal/workers/discovery/trending-spots/handler_test.go
package trendingspots

import (
	"context"
	"database/sql"
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

	return NewHandler(LoadConfig(), stores.NewCheckinStore(db), logger.NewNoOpLogger()), mock
}

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name          string
		last7, prev7  int
		expectedPct   float64
		expectedScore float64
		expectedDir   string
	}{
		{"breakout from zero", 5, 0, 100, 100, "up"},          // 50+50+10 clamps at 100
		{"sharp decline", 2, 10, -80, 14, "down"},             // 50-40+4
		{"steady", 4, 4, 0, 58, "stable"},                     // 50+0+8
		{"mild growth within band", 11, 10, 10, 77, "stable"}, // exactly +10% is not "up"
		{"dead spot", 0, 0, 0, 50, "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := computeTrend(tt.last7, tt.prev7)
			assert.InDelta(t, tt.expectedPct, ts.PercentChange, 0.001)
			assert.InDelta(t, tt.expectedScore, ts.TrendingScore, 0.001)
			assert.Equal(t, tt.expectedDir, ts.Direction)
		})
	}
}

func TestExecute_NoiseFloorFiltersSingleCheckin(t *testing.T) {
	h, mock := setupHandler(t)
	now := time.Now().UTC()

	// last7 = 1 falls below the floor; prev7 is never queried
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	output := h.Execute(context.Background(), &Input{SpotIDs: []string{"spot-1"}}, now)

	assert.Empty(t, output.Trending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RanksByTrendingScore(t *testing.T) {
	h, mock := setupHandler(t)
	now := time.Now().UTC()

	// spot-1: last7=5, prev7=0 -> score 100 up
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// spot-2: last7=2, prev7=10 -> score 14 down
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	output := h.Execute(context.Background(), &Input{SpotIDs: []string{"spot-1", "spot-2"}}, now)

	require.Len(t, output.Trending, 2)
	assert.Equal(t, "spot-1", output.Trending[0].SpotID)
	assert.Equal(t, "up", output.Trending[0].Direction)
	assert.InDelta(t, 100, output.Trending[0].TrendingScore, 0.001)
	assert.Equal(t, "down", output.Trending[1].Direction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ScansActiveSpotsWhenNoInput(t *testing.T) {
	h, mock := setupHandler(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT spot_id,").
		WillReturnRows(sqlmock.NewRows([]string{"spot_id", "name", "count"}).
			AddRow("busy-1", "Busy Spot", 8))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	output := h.Execute(context.Background(), &Input{}, now)

	require.Len(t, output.Trending, 1)
	assert.Equal(t, "busy-1", output.Trending[0].SpotID)
	assert.Equal(t, "Busy Spot", output.Trending[0].Name)
	assert.Equal(t, "up", output.Trending[0].Direction) // 8 vs 2 is +300%
}

func TestExecute_StoreFailureIsEmptyNotError(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectQuery("SELECT spot_id,").WillReturnError(sql.ErrConnDone)

	output := h.Execute(context.Background(), &Input{}, time.Now().UTC())
	assert.Empty(t, output.Trending)
}
