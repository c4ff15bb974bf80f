// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateAgainstSchema validates a document against a JSON schema map.
// Schema and document are loaded as Go values, not raw JSON text.
func ValidateAgainstSchema(data map[string]interface{}, schemaMap map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// CheckinPayloadSchema describes the check-in payload accepted at the
// ingestion boundary. Legacy encodings (numeric noise, 1-5 outlets,
// boolean outlets) are allowed here and normalized downstream.
var CheckinPayloadSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"checkinId": map[string]interface{}{"type": "string", "minLength": 1},
		"userId":    map[string]interface{}{"type": "string", "minLength": 1},
		"spotId":    map[string]interface{}{"type": "string", "minLength": 1},
		"rating": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
			"maximum": 5,
		},
		"noiseLevel":   map[string]interface{}{"type": []interface{}{"string", "number", "null"}},
		"outlets":      map[string]interface{}{"type": []interface{}{"string", "number", "boolean", "null"}},
		"wifiSpeed":    map[string]interface{}{"type": []interface{}{"number", "null"}},
		"timestamp":    map[string]interface{}{"type": "string"},
		"predictionId": map[string]interface{}{"type": []interface{}{"string", "null"}},
	},
	"required":             []interface{}{"checkinId", "userId", "spotId"},
	"additionalProperties": true,
}

// ValidateActivityNaming validates activity ID follows naming convention
func ValidateActivityNaming(activityId string) error {
	parts := strings.Split(activityId, ".")
	if len(parts) != 3 {
		return fmt.Errorf("activity ID must follow format: domain.subdomain.action (e.g., intelligence.preferences.learn)")
	}
	for _, part := range parts {
		if part == "" || strings.ToLower(part) != part {
			return fmt.Errorf("activity ID segments must be non-empty lowercase: %q", activityId)
		}
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
