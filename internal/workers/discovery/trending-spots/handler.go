// internal/workers/discovery/trending-spots/handler.go
package trendingspots

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "trending-spots"
)

type Handler struct {
	config   *Config
	checkins *stores.CheckinStore
	logger   logger.Logger
}

func NewHandler(config *Config, checkins *stores.CheckinStore, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		checkins: checkins,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input, time.Now().UTC())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input, now time.Time) *Output {
	empty := &Output{Trending: []TrendingSpot{}, Strategy: "trending"}

	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	type scanTarget struct {
		spotID string
		name   string
		last7  int
	}
	var targets []scanTarget

	if len(input.SpotIDs) > 0 {
		for _, spotID := range input.SpotIDs {
			last7, err := h.checkins.CountByWindow(ctx, spotID, weekAgo, now)
			if err != nil {
				metrics.DegradedReads.WithLabelValues("trending").Inc()
				return empty
			}
			targets = append(targets, scanTarget{spotID: spotID, last7: last7})
		}
	} else {
		active, err := h.checkins.ActiveSpots(ctx, weekAgo, h.config.MaxSpotsScanned)
		if err != nil {
			h.logger.Warn("active spot scan failed", map[string]interface{}{"error": err})
			metrics.DegradedReads.WithLabelValues("trending").Inc()
			return empty
		}
		for _, sv := range active {
			targets = append(targets, scanTarget{spotID: sv.SpotID, name: sv.Name, last7: sv.Count})
		}
	}

	var trending []TrendingSpot
	for _, target := range targets {
		// noise floor: a single check-in is not a trend
		if target.last7 < h.config.MinWeeklyCheckins {
			continue
		}
		prev7, err := h.checkins.CountByWindow(ctx, target.spotID, twoWeeksAgo, weekAgo)
		if err != nil {
			metrics.DegradedReads.WithLabelValues("trending").Inc()
			continue
		}
		ts := computeTrend(target.last7, prev7)
		ts.SpotID = target.spotID
		ts.Name = target.name
		trending = append(trending, ts)
	}

	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].TrendingScore > trending[j].TrendingScore
	})
	if len(trending) > h.config.MaxResults {
		trending = trending[:h.config.MaxResults]
	}

	h.logger.Info("trend scan complete", map[string]interface{}{
		"scanned":  len(targets),
		"trending": len(trending),
	})
	metrics.RecommendationsServed.WithLabelValues("trending").Inc()

	return &Output{Trending: trending, Strategy: "trending"}
}

// computeTrend derives week-over-week movement for one spot.
func computeTrend(last7, prev7 int) TrendingSpot {
	var percentChange float64
	switch {
	case prev7 > 0:
		percentChange = float64(last7-prev7) / float64(prev7) * 100
	case last7 > 0:
		percentChange = 100
	default:
		percentChange = 0
	}

	score := clamp(50+percentChange/2+float64(last7)*2, 0, 100)

	direction := "stable"
	if percentChange > 10 {
		direction = "up"
	} else if percentChange < -10 {
		direction = "down"
	}

	return TrendingSpot{
		Last7:         last7,
		Prev7:         prev7,
		PercentChange: percentChange,
		TrendingScore: score,
		Direction:     direction,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input, now time.Time) *Output {
	return h.execute(ctx, input, now)
}
