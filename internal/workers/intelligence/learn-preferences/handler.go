// internal/workers/intelligence/learn-preferences/handler.go
package learnpreferences

import (
	"context"
	"encoding/json"
	"fmt"
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
	TaskType = "learn-preferences"
)

type Handler struct {
	config   *Config
	checkins *stores.CheckinStore
	cache    cache.Cache
	logger   logger.Logger
}

func NewHandler(config *Config, checkins *stores.CheckinStore, c cache.Cache, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		checkins: checkins,
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

// execute never returns an error: a broken check-in store degrades to the
// neutral default profile so scoring downstream keeps working.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	cacheKey := "prefs:" + input.UserID

	if !input.ForceRefresh {
		var cached models.UserPreferenceProfile
		err := h.cache.Get(ctx, cacheKey, &cached)
		if err == nil && time.Since(cached.LastUpdated) < h.config.CacheTTL {
			metrics.CacheLookups.WithLabelValues("preferences", "hit").Inc()
			return &Output{Profile: &cached, Source: "cache"}
		}
		if err != nil && err != cache.ErrMiss {
			h.logger.Warn("preference cache read failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err,
			})
		}
		metrics.CacheLookups.WithLabelValues("preferences", "miss").Inc()
	}

	checkins, err := h.checkins.RecentByUser(ctx, input.UserID, h.config.HistoryLimit)
	if err != nil {
		h.logger.Warn("check-in history unavailable, using neutral profile", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		metrics.DegradedReads.WithLabelValues("preferences").Inc()
		return &Output{Profile: models.NeutralProfile(input.UserID), Source: "default"}
	}

	profile := buildProfile(input.UserID, checkins, h.config.MaxFrequent, time.Now().UTC())

	if err := h.cache.Set(ctx, cacheKey, profile, h.config.CacheTTL); err != nil {
		h.logger.Warn("preference cache write failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	}

	h.logger.Info("profile rebuilt", map[string]interface{}{
		"userId":        input.UserID,
		"checkins":      len(checkins),
		"frequentSpots": len(profile.FrequentSpots),
	})

	return &Output{Profile: profile, Source: "rebuilt"}
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
