// internal/models/engagement.go
package models

// EventWeights maps implicit-feedback event types to the affinity weight
// each one contributes. A check-in is the strongest signal; a passive
// impression barely moves the needle.
var EventWeights = map[string]float64{
	"impression": 0.2,
	"tap":        1,
	"save":       2,
	"checkin":    3,
	"map_open":   0.5,
}

// EventWeight resolves an event type to its affinity weight.
func EventWeight(eventType string) (float64, bool) {
	w, ok := EventWeights[eventType]
	return w, ok
}
