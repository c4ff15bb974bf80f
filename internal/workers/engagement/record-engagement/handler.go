// internal/workers/engagement/record-engagement/handler.go
package recordengagement

import (
	"context"
	"encoding/json"
	"fmt"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-engagement"
)

// Handler folds implicit-feedback events into per-user category affinity.
// The write is best-effort: a lost increment costs a sliver of signal, so
// store failures complete the job with recorded=false instead of retrying.
type Handler struct {
	config   *Config
	affinity *stores.AffinityStore
	logger   logger.Logger
}

func NewHandler(config *Config, affinity *stores.AffinityStore, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		affinity: affinity,
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
	if _, ok := models.EventWeight(input.EventType); !ok {
		h.failJob(client, job, "MALFORMED_INPUT", fmt.Sprintf("unknown event type %q", input.EventType))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	weight, ok := models.EventWeight(input.EventType)
	if !ok {
		return &Output{Recorded: false}
	}

	category := input.Category
	if category == "" {
		category = models.InferCategory(input.SpotName)
	}

	if err := h.affinity.Increment(ctx, input.UserID, category, weight); err != nil {
		h.logger.Warn("affinity increment failed", map[string]interface{}{
			"userId":   input.UserID,
			"category": category,
			"error":    err,
		})
		metrics.DegradedReads.WithLabelValues("affinity").Inc()
		return &Output{Recorded: false, Category: category}
	}

	h.logger.Info("engagement recorded", map[string]interface{}{
		"userId":    input.UserID,
		"category":  category,
		"eventType": input.EventType,
		"weight":    weight,
	})
	return &Output{Recorded: true, Category: category, Weight: weight}
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
