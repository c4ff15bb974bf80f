// internal/common/telemetry/telemetry.go

// Package telemetry publishes the calibration tracker's soft success/failure
// signals. Publishing is best-effort: a failed publish is logged and dropped,
// never surfaced to the caller.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Signal is one soft success/failure event from the calibration tracker.
type Signal struct {
	EventID    string    `json:"eventId"`
	Component  string    `json:"component"`
	CheckinID  string    `json:"checkinId,omitempty"`
	OutcomeKey string    `json:"outcomeKey,omitempty"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSignal builds a signal with a fresh event id.
func NewSignal(component, checkinID, outcomeKey string, success bool, reason string) Signal {
	return Signal{
		EventID:    uuid.New().String(),
		Component:  component,
		CheckinID:  checkinID,
		OutcomeKey: outcomeKey,
		Success:    success,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
	}
}

// Publisher delivers signals to an external sink.
type Publisher interface {
	Publish(ctx context.Context, sig Signal) error
}

// NopPublisher drops every signal. Used when telemetry is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Signal) error { return nil }

func (s Signal) marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
