// internal/workers/intelligence/learn-preferences/service.go
package learnpreferences

import (
	"sort"
	"time"

	"perched-workers/internal/models"
)

// outlet enum mapped onto the 1-5 importance scale
var outletLevel = map[models.OutletAvailability]float64{
	models.OutletsNone:    1,
	models.OutletsLimited: 3,
	models.OutletsPlenty:  5,
}

// buildProfile derives a preference profile from recent check-ins.
// Pure function: identical history in, identical profile out.
func buildProfile(userID string, checkins []models.CheckinRecord, maxFrequent int, now time.Time) *models.UserPreferenceProfile {
	profile := models.NeutralProfile(userID)
	profile.LastUpdated = now
	if len(checkins) == 0 {
		return profile
	}

	var noiseSum, busySum, wifiSum, outletSum float64
	var noiseN, busyN, wifiN, outletN int
	hourBuckets := map[string]int{}
	visits := map[string]int{}
	names := map[string]string{}
	categoryCounts := map[string]int{}

	for _, c := range checkins {
		if c.Metrics.NoiseLevel != nil {
			noiseSum += float64(*c.Metrics.NoiseLevel)
			noiseN++
		}
		if c.Metrics.Busyness != nil {
			busySum += float64(*c.Metrics.Busyness)
			busyN++
		}
		if c.Metrics.WifiSpeed != nil {
			wifiSum += float64(*c.Metrics.WifiSpeed)
			wifiN++
		}
		if c.Metrics.Outlets != nil {
			outletSum += outletLevel[*c.Metrics.Outlets]
			outletN++
		}
		hourBuckets[timeOfDayBucket(c.CreatedAt.Hour())]++
		visits[c.SpotID]++
		if names[c.SpotID] == "" {
			names[c.SpotID] = c.SpotName
		}
		categoryCounts[models.InferCategory(c.SpotName)]++
	}

	if noiseN > 0 {
		profile.PreferredNoiseLevel = noiseBucket(noiseSum / float64(noiseN))
	}
	if busyN > 0 {
		profile.PreferredBusyness = busynessBucket(busySum / float64(busyN))
	}
	if wifiN > 0 {
		profile.WifiImportance = importanceBucket(wifiSum / float64(wifiN))
	}
	if outletN > 0 {
		profile.OutletImportance = importanceBucket(outletSum / float64(outletN))
	}
	profile.PreferredTimeOfDay = modeBucket(hourBuckets)
	profile.FrequentSpots = frequentSpots(visits, names, maxFrequent)
	profile.PreferredSpotTypes = topCategories(categoryCounts, 5)

	return profile
}

func noiseBucket(mean float64) string {
	switch {
	case mean <= 2:
		return models.NoiseQuiet
	case mean >= 4:
		return models.NoiseLively
	default:
		return models.NoiseModerate
	}
}

func busynessBucket(mean float64) string {
	switch {
	case mean <= 2:
		return models.BusynessEmpty
	case mean >= 4:
		return models.BusynessBusy
	default:
		return models.BusynessModerate
	}
}

func importanceBucket(mean float64) string {
	switch {
	case mean >= 4:
		return models.ImportanceHigh
	case mean <= 2:
		return models.ImportanceLow
	default:
		return models.ImportanceMedium
	}
}

func timeOfDayBucket(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return models.TimeMorning
	case hour >= 12 && hour < 18:
		return models.TimeAfternoon
	default:
		return models.TimeEvening
	}
}

// modeBucket returns the most frequent bucket, with a fixed order on ties
// so the result is deterministic.
func modeBucket(counts map[string]int) string {
	best, bestCount := "", 0
	for _, bucket := range []string{models.TimeMorning, models.TimeAfternoon, models.TimeEvening} {
		if counts[bucket] > bestCount {
			best, bestCount = bucket, counts[bucket]
		}
	}
	return best
}

func frequentSpots(visits map[string]int, names map[string]string, max int) []models.FrequentSpot {
	var spots []models.FrequentSpot
	for spotID, count := range visits {
		if count >= 2 {
			spots = append(spots, models.FrequentSpot{SpotID: spotID, Name: names[spotID], Visits: count})
		}
	}
	sort.SliceStable(spots, func(i, j int) bool {
		if spots[i].Visits != spots[j].Visits {
			return spots[i].Visits > spots[j].Visits
		}
		return spots[i].SpotID < spots[j].SpotID
	})
	if len(spots) > max {
		spots = spots[:max]
	}
	return spots
}

func topCategories(counts map[string]int, max int) []string {
	type entry struct {
		category string
		count    int
	}
	var entries []entry
	for category, count := range counts {
		if count >= 2 && category != "other" {
			entries = append(entries, entry{category, count})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].category < entries[j].category
	})
	if len(entries) > max {
		entries = entries[:max]
	}
	categories := make([]string, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, e.category)
	}
	return categories
}
