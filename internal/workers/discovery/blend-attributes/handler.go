// internal/workers/discovery/blend-attributes/handler.go
package blendattributes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "blend-attributes"
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
	if input.SpotID == "" {
		h.failJob(client, job, "MALFORMED_INPUT", "spotId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input, time.Now().UTC())
	h.completeJob(client, job, output)
}

// execute recomputes the live aggregate from the raw window on every call;
// nothing here is a persisted running average. A store failure degrades to
// inferred-only display values.
func (h *Handler) execute(ctx context.Context, input *Input, now time.Time) *Output {
	var checkins []models.CheckinRecord
	recent, err := h.checkins.RecentBySpot(ctx, input.SpotID, now.Add(-h.config.Window), h.config.MaxCheckins)
	if err != nil {
		h.logger.Warn("live window unavailable, showing inferred only", map[string]interface{}{
			"spotId": input.SpotID,
			"error":  err,
		})
		metrics.DegradedReads.WithLabelValues("blend").Inc()
	} else {
		checkins = recent
	}

	output := &Output{SpotID: input.SpotID}
	output.Noise = blend(input.InferredNoise, weightedAverage(checkins, now, h.config.HalfLife, noiseMetric), h.config.LiveWeightCap)
	output.Wifi = blend(input.InferredWifi, weightedAverage(checkins, now, h.config.HalfLife, wifiMetric), h.config.LiveWeightCap)
	output.Outlets = blend(input.InferredOutlets, weightedAverage(checkins, now, h.config.HalfLife, outletMetric), h.config.LiveWeightCap)
	// busyness has no inferred counterpart: live or nothing
	output.Busyness = blend(nil, weightedAverage(checkins, now, h.config.HalfLife, busynessMetric), h.config.LiveWeightCap)

	return output
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
