// internal/workers/discovery/score-spots/service.go
package scorespots

import (
	"math"
	"sort"

	"perched-workers/internal/models"
)

// noise anchors per preference bucket, on the 1-5 scale
var noiseAnchors = map[string]float64{
	models.NoiseQuiet:    1.5,
	models.NoiseModerate: 3,
	models.NoiseLively:   4.5,
}

// scoreSpot ranks one candidate against a profile and request context.
// Pure function of its inputs. The score starts at 50 and accumulates
// adjustments; the behavioral multiplier applies to the running total, so
// intermediate values can exceed 100. Clamping happens once, at the end.
func scoreSpot(spot models.SpotCandidate, profile *models.UserPreferenceProfile, sctx ScoreContext, affinity map[string]float64) models.SpotRecommendation {
	score := 50.0
	var reasons []string

	// Noise match: linear falloff from the preference anchor.
	noiseBonus := 0.0
	if anchor, ok := noiseAnchors[profile.PreferredNoiseLevel]; ok && spot.AvgNoise != nil {
		noiseBonus = math.Max(0, 20-5*math.Abs(*spot.AvgNoise-anchor))
		score += noiseBonus
	}

	// Category match against learned spot types.
	for _, t := range profile.PreferredSpotTypes {
		if t == spot.Category {
			score += 15
			break
		}
	}

	// Behavioral affinity multiplier, capped at +30%.
	if a, ok := affinity[spot.Category]; ok && a > 0 {
		score *= 1 + 0.3*math.Min(a, 1)
	}

	frequent := profile.IsFrequentSpot(spot.PlaceID)
	if frequent {
		score += 10
	}

	if sctx.TimeOfDay != "" && sctx.TimeOfDay == profile.PreferredTimeOfDay {
		score += 10
	}

	rainyIndoor := sctx.Rainy && spot.Indoor
	if rainyIndoor {
		score += 15
	}

	// Distance penalty; adversarial negative distances count as zero.
	distance := math.Max(spot.DistanceKm, 0)
	score -= math.Min(2*distance, 20)

	// Quality bonuses, gated on the spot actually being good.
	wifiBonus := spot.AvgWifi != nil && *spot.AvgWifi >= 4
	if wifiBonus {
		score += qualityBonus(profile.WifiImportance)
	}
	outletBonus := spot.OutletScore != nil && *spot.OutletScore >= 0.5
	if outletBonus {
		score += qualityBonus(profile.OutletImportance)
	}

	popularity := math.Min(float64(spot.CheckinCount)/10, 10)
	score += popularity

	final := int(math.Round(clamp(score, 0, 100)))

	// Reasons in fixed precedence order.
	if noiseBonus >= 10 {
		reasons = append(reasons, noiseReason(profile.PreferredNoiseLevel))
	}
	if frequent {
		reasons = append(reasons, "One of your regular spots")
	}
	if wifiBonus {
		reasons = append(reasons, "Fast wifi reported recently")
	}
	if outletBonus {
		reasons = append(reasons, "Outlets usually available")
	}
	if distance <= 1 {
		reasons = append(reasons, "Close to you")
	}
	if rainyIndoor {
		reasons = append(reasons, "Good indoor option for the rain")
	}
	if popularity >= 5 {
		reasons = append(reasons, "Popular with other members")
	}
	if len(reasons) == 0 {
		reasons = []string{"Based on your activity"}
	}

	return models.SpotRecommendation{
		PlaceID:           spot.PlaceID,
		Name:              spot.Name,
		Score:             final,
		Reasons:           reasons,
		PredictedBusyness: spot.AvgBusyness,
		PredictedNoise:    spot.AvgNoise,
		BestTimeToVisit:   profile.PreferredTimeOfDay,
		MatchScore:        matchScore(spot, profile),
	}
}

// matchScore is the profile-fit portion only: no distance, weather, or
// popularity context, so the UI can show "how well this fits you".
func matchScore(spot models.SpotCandidate, profile *models.UserPreferenceProfile) int {
	score := 50.0
	if anchor, ok := noiseAnchors[profile.PreferredNoiseLevel]; ok && spot.AvgNoise != nil {
		score += math.Max(0, 20-5*math.Abs(*spot.AvgNoise-anchor))
	}
	for _, t := range profile.PreferredSpotTypes {
		if t == spot.Category {
			score += 15
			break
		}
	}
	if profile.IsFrequentSpot(spot.PlaceID) {
		score += 10
	}
	return int(math.Round(clamp(score, 0, 100)))
}

// rankSpots scores every candidate and returns the top max by score.
// The sort is stable so equal scores keep candidate order.
func rankSpots(candidates []models.SpotCandidate, profile *models.UserPreferenceProfile, sctx ScoreContext, affinity map[string]float64, max int) []models.SpotRecommendation {
	recs := make([]models.SpotRecommendation, 0, len(candidates))
	for _, spot := range candidates {
		recs = append(recs, scoreSpot(spot, profile, sctx, affinity))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > max {
		recs = recs[:max]
	}
	return recs
}

func qualityBonus(importance string) float64 {
	if importance == models.ImportanceHigh {
		return 10
	}
	return 5
}

func noiseReason(pref string) string {
	switch pref {
	case models.NoiseQuiet:
		return "Quiet, like you prefer"
	case models.NoiseLively:
		return "Lively atmosphere, like you prefer"
	default:
		return "Matches your noise preference"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
