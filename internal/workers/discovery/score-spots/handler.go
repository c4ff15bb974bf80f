// internal/workers/discovery/score-spots/handler.go
package scorespots

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"perched-workers/internal/common/cache"
	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-spots"
)

// SpotFinder retrieves nearby candidates; satisfied by stores.SpotSearcher.
type SpotFinder interface {
	SearchNearby(ctx context.Context, search stores.SpotSearch) ([]models.SpotCandidate, error)
}

// AffinityReader exposes accumulated category affinities.
type AffinityReader interface {
	All(ctx context.Context, userID string) (map[string]float64, error)
}

type Handler struct {
	config   *Config
	checkins *stores.CheckinStore
	spots    SpotFinder
	affinity AffinityReader
	cache    cache.Cache
	logger   logger.Logger
}

func NewHandler(config *Config, checkins *stores.CheckinStore, spots SpotFinder, affinity AffinityReader, c cache.Cache, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		checkins: checkins,
		spots:    spots,
		affinity: affinity,
		cache:    c,
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

// execute is fail-open: any retrieval error yields an empty list, never a
// thrown error, so the discovery surface degrades instead of breaking.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	recKey := fmt.Sprintf("recs:%s:%.2f:%.2f", input.UserID, input.Lat, input.Lng)

	var cached []models.SpotRecommendation
	if err := h.cache.Get(ctx, recKey, &cached); err == nil {
		metrics.CacheLookups.WithLabelValues("recommendations", "hit").Inc()
		metrics.RecommendationsServed.WithLabelValues("personalized").Inc()
		return &Output{Recommendations: cached, Strategy: "personalized", FromCache: true}
	}
	metrics.CacheLookups.WithLabelValues("recommendations", "miss").Inc()

	profile := h.resolveProfile(ctx, input)

	affinity, err := h.affinity.All(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("affinity lookup failed, scoring without it", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		affinity = map[string]float64{}
	}

	candidates, err := h.candidates(ctx, input)
	if err != nil {
		h.logger.Warn("candidate retrieval failed, returning empty result", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		metrics.DegradedReads.WithLabelValues("scoring").Inc()
		return &Output{Recommendations: []models.SpotRecommendation{}, Strategy: "personalized"}
	}

	recs := rankSpots(candidates, profile, input.Context, affinity, h.config.MaxResults)

	if err := h.cache.Set(ctx, recKey, recs, h.config.RecommendationTTL); err != nil {
		h.logger.Warn("recommendation cache write failed", map[string]interface{}{"error": err})
	}

	h.logger.Info("recommendations ranked", map[string]interface{}{
		"userId":     input.UserID,
		"candidates": len(candidates),
		"returned":   len(recs),
	})
	metrics.RecommendationsServed.WithLabelValues("personalized").Inc()

	return &Output{Recommendations: recs, Strategy: "personalized"}
}

// resolveProfile prefers the inline profile, then the preference cache,
// then the neutral default. Never fails.
func (h *Handler) resolveProfile(ctx context.Context, input *Input) *models.UserPreferenceProfile {
	if input.Profile != nil {
		return input.Profile
	}
	var cached models.UserPreferenceProfile
	if err := h.cache.Get(ctx, "prefs:"+input.UserID, &cached); err == nil {
		return &cached
	}
	metrics.DegradedReads.WithLabelValues("preferences").Inc()
	return models.NeutralProfile(input.UserID)
}

// candidates returns nearby spots enriched with recent aggregate metrics,
// cached briefly per rounded location and radius.
func (h *Handler) candidates(ctx context.Context, input *Input) ([]models.SpotCandidate, error) {
	radius := input.RadiusKm
	if radius <= 0 {
		radius = h.config.RadiusKm
	}
	candKey := fmt.Sprintf("spots:%.2f:%.2f:%.1f", input.Lat, input.Lng, radius)

	var cached []models.SpotCandidate
	if err := h.cache.Get(ctx, candKey, &cached); err == nil {
		metrics.CacheLookups.WithLabelValues("candidates", "hit").Inc()
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("candidates", "miss").Inc()

	found, err := h.spots.SearchNearby(ctx, stores.SpotSearch{
		Lat:      input.Lat,
		Lng:      input.Lng,
		RadiusKm: radius,
		Size:     50,
	})
	if err != nil {
		return nil, err
	}

	h.attachAggregates(ctx, found)

	if err := h.cache.Set(ctx, candKey, found, h.config.CandidateTTL); err != nil {
		h.logger.Warn("candidate cache write failed", map[string]interface{}{"error": err})
	}
	return found, nil
}

// attachAggregates fills in recent metrics per candidate. Lookups run in
// bounded batches to respect store fan-out limits; individual failures
// leave that candidate's aggregates empty.
func (h *Handler) attachAggregates(ctx context.Context, candidates []models.SpotCandidate) {
	since := time.Now().UTC().AddDate(0, 0, -h.config.CandidateWindowDays)
	batch := h.config.BatchSize
	if batch <= 0 {
		batch = 10
	}

	for start := 0; start < len(candidates); start += batch {
		end := start + batch
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				agg, err := h.checkins.AggregateBySpot(ctx, candidates[i].PlaceID, since)
				if err != nil {
					return
				}
				candidates[i].AvgNoise = agg.AvgNoise
				candidates[i].AvgWifi = agg.AvgWifi
				candidates[i].AvgBusyness = agg.AvgBusyness
				candidates[i].OutletScore = agg.OutletScore
				candidates[i].CheckinCount = agg.CheckinCount
			}(i)
		}
		wg.Wait()
	}
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
