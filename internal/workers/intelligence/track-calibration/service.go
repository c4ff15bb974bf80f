// internal/workers/intelligence/track-calibration/service.go
package trackcalibration

import (
	"math"
	"strings"
	"time"

	"perched-workers/internal/models"
)

// Observed-score weights per metric. Noise and busyness are inverted:
// quiet and empty read as better for work.
const (
	wifiWeight     = 0.35
	noiseWeight    = 0.25
	busynessWeight = 0.20
	laptopWeight   = 0.12
	outletWeight   = 0.08
)

// observedWorkScore folds the present metrics into a 0-100 score and
// reports how many signals contributed. Weights re-normalize over the
// signals actually present.
func observedWorkScore(m models.CheckinMetrics) (float64, int) {
	var weightedSum, weightTotal float64
	signals := 0

	if m.WifiSpeed != nil {
		weightedSum += scaleUp(*m.WifiSpeed) * wifiWeight
		weightTotal += wifiWeight
		signals++
	}
	if m.NoiseLevel != nil {
		weightedSum += scaleDown(*m.NoiseLevel) * noiseWeight
		weightTotal += noiseWeight
		signals++
	}
	if m.Busyness != nil {
		weightedSum += scaleDown(*m.Busyness) * busynessWeight
		weightTotal += busynessWeight
		signals++
	}
	if m.LaptopFriendly != nil {
		if *m.LaptopFriendly {
			weightedSum += laptopWeight
		}
		weightTotal += laptopWeight
		signals++
	}
	if m.Outlets != nil {
		weightedSum += models.OutletRatio(*m.Outlets) * outletWeight
		weightTotal += outletWeight
		signals++
	}

	if weightTotal == 0 {
		return 0, 0
	}
	return weightedSum / weightTotal * 100, signals
}

func scaleUp(v int) float64   { return float64(v-1) / 4 }
func scaleDown(v int) float64 { return float64(5-v) / 4 }

// matchPrediction picks the best link candidate for a check-in. Candidates
// score +5 for a placeId match, +4 for a name match when no placeId
// matched, +2 for the same user, and up to +2 recency (linear decay over
// the span, predictions before the check-in preferred). Ties go to the
// most recent prediction; a best score <= 0 means no link.
func matchPrediction(checkin models.CheckinRecord, candidates []models.IntelligencePrediction, recencySpan time.Duration) *models.IntelligencePrediction {
	var best *models.IntelligencePrediction
	bestScore := 0.0

	for i := range candidates {
		pred := &candidates[i]
		score := 0.0

		placeMatch := pred.PlaceID != "" && pred.PlaceID == checkin.SpotID
		if placeMatch {
			score += 5
		} else if pred.PlaceName != "" && strings.EqualFold(pred.PlaceName, checkin.SpotName) {
			score += 4
		}
		if pred.UserID != "" && pred.UserID == checkin.UserID {
			score += 2
		}
		score += recencyBonus(checkin.CreatedAt, pred.CreatedAt, recencySpan)

		if score > bestScore || (score == bestScore && best != nil && score > 0 && pred.CreatedAt.After(best.CreatedAt)) {
			best = pred
			bestScore = score
		}
	}

	if bestScore <= 0 {
		return nil
	}
	return best
}

// recencyBonus decays linearly with the gap between prediction and
// check-in. Predictions made before the check-in earn up to 2; the rare
// prediction arriving just after earns at most 1.
func recencyBonus(checkinAt, predictedAt time.Time, span time.Duration) float64 {
	gap := checkinAt.Sub(predictedAt)
	if gap >= 0 {
		return 2 * math.Max(0, 1-float64(gap)/float64(span))
	}
	return math.Max(0, 1-float64(-gap)/float64(span))
}

// Annotation keywords used to tilt the observed score toward what the
// user actually said about the visit.
var (
	positiveTags = []string{"productive", "focused", "quiet", "cozy", "fast-wifi", "spacious"}
	negativeTags = []string{"crowded", "loud", "noisy", "slow-wifi", "no-outlets", "cramped"}

	positiveCaptionWords = []string{"great", "perfect", "love", "amazing", "productive", "peaceful"}
	negativeCaptionWords = []string{"terrible", "awful", "loud", "crowded", "noisy", "avoid"}
)

// outcomeQuality adjusts the observed score with tag and caption
// sentiment, then buckets it into a label.
func outcomeQuality(observed float64, tags []string, caption string) (float64, string) {
	tagDelta := 0.0
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if containsAny(lower, positiveTags) {
			tagDelta += 4
		}
		if containsAny(lower, negativeTags) {
			tagDelta -= 5
		}
	}
	tagDelta = clamp(tagDelta, -14, 14)

	captionDelta := 0.0
	lowerCaption := strings.ToLower(caption)
	for _, word := range positiveCaptionWords {
		if strings.Contains(lowerCaption, word) {
			captionDelta += 5
		}
	}
	for _, word := range negativeCaptionWords {
		if strings.Contains(lowerCaption, word) {
			captionDelta -= 6
		}
	}
	captionDelta = clamp(captionDelta, -18, 18)

	score := clamp(observed+tagDelta+captionDelta, 0, 100)

	var label string
	switch {
	case score >= 80:
		label = models.QualityExcellent
	case score >= 65:
		label = models.QualityGood
	case score < 45:
		label = models.QualityPoor
	default:
		label = models.QualityMixed
	}
	return score, label
}

// qualityConfidence grows with signal count and annotation richness.
func qualityConfidence(signals int, tags []string, caption string) float64 {
	confidence := 0.2 + 0.1*float64(signals)
	if len(tags) > 0 {
		confidence += 0.1
	}
	if caption != "" {
		confidence += 0.1
	}
	return clamp(confidence, 0.2, 0.95)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
