// internal/workers/engagement/record-engagement/handler_test.go
package recordengagement

import (
	"context"
	"testing"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/stores"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	affinity := stores.NewAffinityStore(client, 30*24*time.Hour)
	return NewHandler(LoadConfig(), affinity, logger.NewNoOpLogger()), mr
}

func TestExecute_RecordsWeightedEvent(t *testing.T) {
	h, mr := setupHandler(t)

	output := h.Execute(context.Background(), &Input{
		UserID: "user-1", EventType: "checkin", Category: "cafe",
	})

	assert.True(t, output.Recorded)
	assert.Equal(t, "cafe", output.Category)
	assert.InDelta(t, 3.0, output.Weight, 0.001)
	assert.Equal(t, "3", mr.HGet("affinity:user-1", "cafe"))
}

func TestExecute_AccumulatesAcrossEvents(t *testing.T) {
	h, mr := setupHandler(t)
	ctx := context.Background()

	h.Execute(ctx, &Input{UserID: "user-1", EventType: "checkin", Category: "library"})
	h.Execute(ctx, &Input{UserID: "user-1", EventType: "tap", Category: "library"})
	h.Execute(ctx, &Input{UserID: "user-1", EventType: "impression", Category: "library"})

	assert.Equal(t, "4.2", mr.HGet("affinity:user-1", "library"))
}

func TestExecute_InfersCategoryFromSpotName(t *testing.T) {
	h, mr := setupHandler(t)

	output := h.Execute(context.Background(), &Input{
		UserID: "user-1", EventType: "save", SpotName: "Central Public Library",
	})

	assert.True(t, output.Recorded)
	assert.Equal(t, "library", output.Category)
	assert.Equal(t, "2", mr.HGet("affinity:user-1", "library"))
}

func TestExecute_ExplicitCategoryWinsOverName(t *testing.T) {
	h, _ := setupHandler(t)

	output := h.Execute(context.Background(), &Input{
		UserID: "user-1", EventType: "tap", Category: "coworking", SpotName: "Blue Bottle Coffee",
	})

	assert.Equal(t, "coworking", output.Category)
}

func TestExecute_StoreFailureIsSoft(t *testing.T) {
	h, mr := setupHandler(t)
	mr.Close()

	output := h.Execute(context.Background(), &Input{
		UserID: "user-1", EventType: "tap", Category: "cafe",
	})

	assert.False(t, output.Recorded)
}
