// internal/workers/discovery/similar-spots/handler.go
package similarspots

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "similar-spots"
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
	if input.UserID == "" {
		h.failJob(client, job, "MALFORMED_INPUT", "userId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

// execute finds spots visited by users who share the seed spot with the
// requesting user. Every failure path returns an empty list.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	empty := &Output{Recommendations: []models.SpotRecommendation{}, Strategy: "similar"}

	seedID := input.SpotID
	if seedID == "" {
		recent, err := h.checkins.RecentByUser(ctx, input.UserID, 1)
		if err != nil || len(recent) == 0 {
			metrics.DegradedReads.WithLabelValues("similar").Inc()
			return empty
		}
		seedID = recent[0].SpotID
	}
	empty.SeedSpotID = seedID

	sampledUsers, err := h.checkins.UsersBySpot(ctx, seedID, input.UserID, h.config.MaxSampledUsers)
	if err != nil {
		h.logger.Warn("overlap user sampling failed", map[string]interface{}{
			"seedSpotId": seedID,
			"error":      err,
		})
		metrics.DegradedReads.WithLabelValues("similar").Inc()
		return empty
	}
	empty.OverlapUsers = len(sampledUsers)

	// minimum-signal floor: one shared visitor is coincidence, not taste
	if len(sampledUsers) < h.config.MinOverlapUsers {
		return empty
	}

	visited, err := h.checkins.SpotsVisitedByUser(ctx, input.UserID)
	if err != nil {
		metrics.DegradedReads.WithLabelValues("similar").Inc()
		return empty
	}

	counts := map[string]int{}
	names := map[string]string{}
	order := []string{}
	for start := 0; start < len(sampledUsers); start += h.config.BatchSize {
		end := start + h.config.BatchSize
		if end > len(sampledUsers) {
			end = len(sampledUsers)
		}
		batch, err := h.checkins.SpotsByUsers(ctx, sampledUsers[start:end])
		if err != nil {
			h.logger.Warn("batched spot lookup failed, using partial results", map[string]interface{}{
				"batchStart": start,
				"error":      err,
			})
			continue
		}
		for _, sv := range batch {
			if sv.SpotID == seedID || visited[sv.SpotID] {
				continue
			}
			if _, seen := counts[sv.SpotID]; !seen {
				order = append(order, sv.SpotID)
				names[sv.SpotID] = sv.Name
			}
			counts[sv.SpotID] += sv.Count
		}
	}

	recs := rankOverlap(counts, names, order, len(sampledUsers), h.config.MaxResults)

	h.logger.Info("similar spots ranked", map[string]interface{}{
		"userId":       input.UserID,
		"seedSpotId":   seedID,
		"overlapUsers": len(sampledUsers),
		"returned":     len(recs),
	})
	metrics.RecommendationsServed.WithLabelValues("similar").Inc()

	return &Output{
		Recommendations: recs,
		Strategy:        "similar",
		SeedSpotID:      seedID,
		OverlapUsers:    len(sampledUsers),
	}
}

// rankOverlap scores candidate spots by shared-visitor count. The order
// slice pins iteration order so ties resolve deterministically.
func rankOverlap(counts map[string]int, names map[string]string, order []string, sampledUsers, max int) []models.SpotRecommendation {
	recs := make([]models.SpotRecommendation, 0, len(counts))
	for _, spotID := range order {
		count := counts[spotID]
		score := int(math.Min(100, 100*float64(count)/math.Max(float64(sampledUsers), 1)))
		recs = append(recs, models.SpotRecommendation{
			PlaceID: spotID,
			Name:    names[spotID],
			Score:   score,
			Reasons: []string{fmt.Sprintf("Visited by %d people who also go to your spots", count)},
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return counts[recs[i].PlaceID] > counts[recs[j].PlaceID]
	})
	if len(recs) > max {
		recs = recs[:max]
	}
	return recs
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

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
