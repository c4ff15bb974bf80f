// internal/workers/discovery/blend-attributes/service.go
package blendattributes

import (
	"math"
	"time"

	"perched-workers/internal/models"
)

// liveAggregate is a recency-weighted average over the blend window.
type liveAggregate struct {
	value float64
	count int
}

// weightedAverage computes exp-decay weighted means over recent check-ins.
// extract pulls one metric from a record; nil means the record abstains.
func weightedAverage(checkins []models.CheckinRecord, now time.Time, halfLife time.Duration, extract func(models.CheckinMetrics) *float64) *liveAggregate {
	var weightedSum, weightTotal float64
	count := 0
	for _, c := range checkins {
		v := extract(c.Metrics)
		if v == nil {
			continue
		}
		age := now.Sub(c.CreatedAt)
		if age < 0 {
			age = 0
		}
		weight := math.Exp(-float64(age) / float64(halfLife))
		weightedSum += *v * weight
		weightTotal += weight
		count++
	}
	if count == 0 || weightTotal == 0 {
		return nil
	}
	return &liveAggregate{value: weightedSum / weightTotal, count: count}
}

// blend decides what to display for one attribute. The live weight is
// capped so crowd data can never fully override the inferred estimate.
func blend(inferred *InferredAttribute, live *liveAggregate, liveWeightCap float64) *BlendedAttribute {
	if live == nil {
		if inferred == nil {
			return nil
		}
		v := inferred.Value
		return &BlendedAttribute{Value: v, Provenance: "inferred", InferredValue: &v}
	}

	liveVal := live.value
	if inferred == nil {
		return &BlendedAttribute{Value: liveVal, Provenance: "live", LiveValue: &liveVal, CheckinCount: live.count}
	}

	wLive := math.Min(float64(live.count)/10, liveWeightCap)
	infVal := inferred.Value

	if wLive > 0.5 {
		return &BlendedAttribute{Value: liveVal, Provenance: "live", LiveValue: &liveVal, CheckinCount: live.count}
	}

	out := &BlendedAttribute{
		Value:        liveVal,
		Provenance:   "blended",
		LiveValue:    &liveVal,
		CheckinCount: live.count,
	}
	// surface the inferred value only when the two disagree
	if math.Abs(liveVal-infVal) > 0.001 {
		out.InferredValue = &infVal
	}
	return out
}

func noiseMetric(m models.CheckinMetrics) *float64 {
	if m.NoiseLevel == nil {
		return nil
	}
	v := float64(*m.NoiseLevel)
	return &v
}

func wifiMetric(m models.CheckinMetrics) *float64 {
	if m.WifiSpeed == nil {
		return nil
	}
	v := float64(*m.WifiSpeed)
	return &v
}

func busynessMetric(m models.CheckinMetrics) *float64 {
	if m.Busyness == nil {
		return nil
	}
	v := float64(*m.Busyness)
	return &v
}

func outletMetric(m models.CheckinMetrics) *float64 {
	if m.Outlets == nil {
		return nil
	}
	v := models.OutletRatio(*m.Outlets)
	return &v
}
