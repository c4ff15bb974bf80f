// internal/workers/intelligence/track-calibration/handler.go
package trackcalibration

import (
	"context"
	"encoding/json"
	"time"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/common/metrics"
	"perched-workers/internal/common/telemetry"
	"perched-workers/internal/common/validation"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "track-calibration"
)

// OutcomeWriter persists outcomes idempotently.
type OutcomeWriter interface {
	Insert(ctx context.Context, o *models.IntelligenceOutcome) (bool, error)
}

// MetricsApplier folds outcomes into the rolling calibration aggregate.
type MetricsApplier interface {
	ApplyOutcome(ctx context.Context, o *models.IntelligenceOutcome) error
}

// Handler consumes check-in events emitted after a successful write and
// calibrates prior predictions against them. It rides alongside the
// check-in write path, so it must never fail the job: every outcome,
// including internal errors, completes with a soft status.
type Handler struct {
	config      *Config
	predictions *stores.PredictionStore
	outcomes    OutcomeWriter
	calibration MetricsApplier
	telemetry   telemetry.Publisher
	logger      logger.Logger
}

func NewHandler(config *Config, predictions *stores.PredictionStore, outcomes OutcomeWriter, calibration MetricsApplier, publisher telemetry.Publisher, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		predictions: predictions,
		outcomes:    outcomes,
		calibration: calibration,
		telemetry:   publisher,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		// even a malformed payload completes softly
		h.completeJob(client, job, &Output{Status: StatusFailed, Reason: "unparseable payload"})
		return
	}

	// Schema check runs on the raw payload, before normalization has a
	// chance to guess at legacy encodings.
	var envelope struct {
		Checkin map[string]interface{} `json:"checkin"`
	}
	if err := json.Unmarshal([]byte(job.Variables), &envelope); err == nil {
		result, err := validation.ValidateAgainstSchema(envelope.Checkin, validation.CheckinPayloadSchema)
		if err == nil && !result.Valid {
			h.logger.Warn("checkin payload rejected by schema", map[string]interface{}{
				"jobKey": job.Key,
				"errors": result.GetErrorMessages(),
			})
			h.completeJob(client, job, &Output{Status: StatusSkipped, Reason: "invalid checkin payload"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	checkin := models.NormalizeCheckin(input.Checkin)
	output := h.track(ctx, checkin)

	metrics.CalibrationOutcomes.WithLabelValues(output.Status).Inc()
	h.publishSignal(ctx, checkin.ID, output)

	return output
}

func (h *Handler) track(ctx context.Context, checkin models.CheckinRecord) *Output {
	observed, signals := observedWorkScore(checkin.Metrics)
	if signals < h.config.MinSignals {
		return &Output{Status: StatusSkipped, Reason: "insufficient signals"}
	}

	from := checkin.CreatedAt.Add(-h.config.WindowBefore)
	to := checkin.CreatedAt.Add(h.config.WindowAfter)
	candidates, err := h.predictions.InWindow(ctx, from, to)
	if err != nil {
		h.logger.Warn("prediction window query failed", map[string]interface{}{
			"checkinId": checkin.ID,
			"error":     err,
		})
		return &Output{Status: StatusFailed, Reason: "prediction store unavailable"}
	}

	prediction := matchPrediction(checkin, candidates, h.config.RecencySpan)
	if prediction == nil {
		return &Output{Status: StatusSkipped, Reason: "no matching prediction"}
	}

	qualityScore, qualityLabel := outcomeQuality(observed, checkin.Tags, checkin.Caption)
	signedError := prediction.WorkScore - observed

	outcome := &models.IntelligenceOutcome{
		Key:               models.OutcomeKey(checkin.ID, prediction.ID),
		CheckinID:         checkin.ID,
		PredictionID:      prediction.ID,
		PlaceID:           checkin.SpotID,
		UserID:            checkin.UserID,
		ModelVersion:      prediction.ModelVersion,
		ConfidenceBucket:  prediction.ConfidenceBucket(),
		PredictedScore:    prediction.WorkScore,
		ObservedWorkScore: observed,
		SignedError:       signedError,
		AbsError:          abs(signedError),
		SquaredError:      signedError * signedError,
		QualityLabel:      qualityLabel,
		QualityScore:      qualityScore,
		QualityConfidence: qualityConfidence(signals, checkin.Tags, checkin.Caption),
		CreatedAt:         time.Now().UTC(),
	}

	inserted, err := h.outcomes.Insert(ctx, outcome)
	if err != nil {
		h.logger.Warn("outcome write failed", map[string]interface{}{
			"outcomeKey": outcome.Key,
			"error":      err,
		})
		return &Output{Status: StatusFailed, Reason: "outcome write failed", OutcomeKey: outcome.Key}
	}
	if !inserted {
		// this pair was already calibrated; the aggregate must not move again
		return &Output{Status: StatusDuplicate, OutcomeKey: outcome.Key, PredictionID: prediction.ID}
	}

	if err := h.calibration.ApplyOutcome(ctx, outcome); err != nil {
		h.logger.Error("metrics increment failed after outcome write", map[string]interface{}{
			"outcomeKey": outcome.Key,
			"error":      err,
		})
		return &Output{Status: StatusFailed, Reason: "metrics update failed", OutcomeKey: outcome.Key}
	}

	h.logger.Info("calibration outcome recorded", map[string]interface{}{
		"outcomeKey":   outcome.Key,
		"predictionId": prediction.ID,
		"absError":     outcome.AbsError,
		"quality":      qualityLabel,
	})

	return &Output{
		Status:            StatusRecorded,
		OutcomeKey:        outcome.Key,
		PredictionID:      prediction.ID,
		ObservedWorkScore: observed,
	}
}

func (h *Handler) publishSignal(ctx context.Context, checkinID string, output *Output) {
	sig := telemetry.NewSignal(TaskType, checkinID, output.OutcomeKey, output.Status != StatusFailed, output.Reason)
	if err := h.telemetry.Publish(ctx, sig); err != nil {
		h.logger.Warn("telemetry publish failed", map[string]interface{}{"error": err})
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

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
