// internal/workers/intelligence/calibration-snapshot/handler.go
package calibrationsnapshot

import (
	"context"
	"fmt"
	"math"

	"perched-workers/internal/common/logger"
	"perched-workers/internal/models"
	"perched-workers/internal/stores"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calibration-snapshot"
)

// Handler serves the rolling calibration aggregate to the ops dashboard.
// Unlike the recommendation readers this one throws on store failure: a
// zeroed-out dashboard is worse than a visible error.
type Handler struct {
	config      *Config
	calibration *stores.CalibrationStore
	logger      logger.Logger
}

func NewHandler(config *Config, calibration *stores.CalibrationStore, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		calibration: calibration,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx)
	if err != nil {
		h.failJob(client, job, "DATA_UNAVAILABLE", fmt.Sprintf("read calibration metrics: %v", err))
		return
	}
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context) (*Output, error) {
	snapshot, err := h.calibration.Snapshot(ctx)
	if err != nil {
		h.logger.Error("calibration snapshot read failed", map[string]interface{}{
			"error": err,
		})
		return nil, err
	}

	output := buildReport(snapshot)
	h.logger.Info("calibration snapshot served", map[string]interface{}{
		"sampleCount":  output.SampleCount,
		"meanAbsError": output.MeanAbsError,
	})
	return output, nil
}

// buildReport derives the dashboard view from the raw sums.
func buildReport(m *models.CalibrationMetrics) *Output {
	output := &Output{
		SampleCount:  m.SampleCount,
		MeanAbsError: m.MeanAbsError(),
		ByConfidence: map[string]BucketReport{
			"high":   bucketReport(m.HighConfidenceCount, m.HighConfidenceAbsSum),
			"medium": bucketReport(m.MedConfidenceCount, m.MedConfidenceAbsSum),
			"low":    bucketReport(m.LowConfidenceCount, m.LowConfidenceAbsSum),
		},
		QualityCounts: map[string]int64{
			models.QualityExcellent: m.ExcellentCount,
			models.QualityGood:      m.GoodCount,
			models.QualityMixed:     m.MixedCount,
			models.QualityPoor:      m.PoorCount,
		},
		UpdatedAt: m.UpdatedAt,
	}

	if m.SampleCount > 0 {
		output.RootMeanSquaredError = math.Sqrt(m.SquaredErrorSum / float64(m.SampleCount))
	}

	if len(m.ByModelVersion) > 0 {
		output.ByModelVersion = make(map[string]BucketReport, len(m.ByModelVersion))
		for version, mv := range m.ByModelVersion {
			output.ByModelVersion[version] = bucketReport(mv.SampleCount, mv.AbsErrorSum)
		}
	}
	return output
}

func bucketReport(count int64, absSum float64) BucketReport {
	report := BucketReport{SampleCount: count}
	if count > 0 {
		report.MeanAbsError = absSum / float64(count)
	}
	return report
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

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	return h.execute(ctx)
}
