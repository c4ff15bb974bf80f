// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckinPayloadSchema_AcceptsLegacyEncodings(t *testing.T) {
	payload := map[string]interface{}{
		"checkinId":  "chk-1",
		"userId":     "user-1",
		"spotId":     "spot-1",
		"noiseLevel": "moderate",
		"outlets":    true,
		"wifiSpeed":  float64(4),
	}

	result, err := ValidateAgainstSchema(payload, CheckinPayloadSchema)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestCheckinPayloadSchema_RejectsMissingIdentity(t *testing.T) {
	payload := map[string]interface{}{
		"checkinId": "chk-1",
		"spotId":    "spot-1",
	}

	result, err := ValidateAgainstSchema(payload, CheckinPayloadSchema)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.GetErrorMessages())
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("discovery.spots.score"))
	assert.Error(t, ValidateActivityNaming("score-spots"))
	assert.Error(t, ValidateActivityNaming("discovery.spots"))
	assert.Error(t, ValidateActivityNaming("Discovery.Spots.Score"))
}
