// internal/common/errors/errors.go

// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Degraded-read conditions. Every read path in the engine converts these
	// into its documented neutral/empty result at the component boundary.
	ErrCodeDataUnavailable    ErrorCode = "DATA_UNAVAILABLE"
	ErrCodeInsufficientSignal ErrorCode = "INSUFFICIENT_SIGNAL"
	ErrCodeMalformedInput     ErrorCode = "MALFORMED_INPUT"

	// Calibration write path.
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeOutcomeWriteFailed  ErrorCode = "OUTCOME_WRITE_FAILED"
	ErrCodeMetricsUpdateFailed ErrorCode = "METRICS_UPDATE_FAILED"

	// Store-level technical errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSpotSearchFailed  ErrorCode = "SPOT_SEARCH_FAILED"
	ErrCodeSpotSearchTimeout ErrorCode = "SPOT_SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeTelemetrySendFailed ErrorCode = "TELEMETRY_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewDataUnavailableError marks a store read that could not complete.
// Callers degrade to their documented default instead of propagating.
func NewDataUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataUnavailable,
		Message:   fmt.Sprintf("Data source '%s' unavailable", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientSignalError marks an input that fell below a minimum-signal
// floor (<2 observed metrics, <2 overlapping users, no matching prediction).
func NewInsufficientSignalError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientSignal,
		Message:   "Not enough signal to produce a result",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedInputError marks input that failed tolerant normalization.
func NewMalformedInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedInput,
		Message:   "Input could not be normalized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConcurrencyConflictError marks a duplicate calibration link attempt.
func NewConcurrencyConflictError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConcurrencyConflict,
		Message:   "Outcome already recorded for this check-in/prediction pair",
		Details:   fmt.Sprintf("outcomeKey: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOutcomeWriteFailedError creates a retryable outcome insert error.
func NewOutcomeWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutcomeWriteFailed,
		Message:   "Calibration outcome insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMetricsUpdateFailedError creates a retryable metrics increment error.
func NewMetricsUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMetricsUpdateFailed,
		Message:   "Calibration metrics increment failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSpotSearchFailedError creates a retryable spot index query error.
func NewSpotSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSpotSearchFailed,
		Message:   "Spot index query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSpotSearchTimeoutError creates a retryable spot index timeout error.
func NewSpotSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSpotSearchTimeout,
		Message:   "Spot index query timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Spot index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError marks a cache hop that failed; reads fall through
// to the backing store, writes are dropped.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTelemetrySendFailedError creates a retryable telemetry publish error.
func NewTelemetrySendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelemetrySendFailed,
		Message:   "Telemetry signal publish failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDataUnavailable:          "DATA_UNAVAILABLE",
	ErrCodeInsufficientSignal:       "INSUFFICIENT_SIGNAL",
	ErrCodeMalformedInput:           "MALFORMED_INPUT",
	ErrCodeConcurrencyConflict:      "CONCURRENCY_CONFLICT",
	ErrCodeOutcomeWriteFailed:       "OUTCOME_WRITE_FAILED",
	ErrCodeMetricsUpdateFailed:      "METRICS_UPDATE_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSpotSearchFailed:         "SPOT_SEARCH_FAILED",
	ErrCodeSpotSearchTimeout:        "SPOT_SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeTelemetrySendFailed:      "TELEMETRY_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
// Degraded-read codes never retry: the component already returned its
// documented default and a retry would not change the answer.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSpotSearchFailed,
		ErrCodeOutcomeWriteFailed,
		ErrCodeMetricsUpdateFailed,
		ErrCodeTelemetrySendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSpotSearchTimeout,
		ErrCodeCacheUnavailable:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Signal/validation errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SIGNAL") || strings.Contains(codeStr, "MALFORMED"):
		return "SIGNAL"
	case strings.Contains(codeStr, "OUTCOME") || strings.Contains(codeStr, "METRICS") || strings.Contains(codeStr, "CONCURRENCY"):
		return "CALIBRATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SPOT_SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "TELEMETRY"):
		return "TELEMETRY"
	default:
		return "OTHER"
	}
}
