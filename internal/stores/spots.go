// internal/stores/spots.go
package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"perched-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// SpotSearch describes a nearby-venue lookup.
type SpotSearch struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Size     int
}

// SpotSearcher retrieves nearby venues from the spots index.
type SpotSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewSpotSearcher(client *elasticsearch.Client, index string) *SpotSearcher {
	return &SpotSearcher{client: client, index: index}
}

// SearchNearby runs a geo_distance query and returns candidates sorted by
// distance. Venue category falls back to the rule table when the index
// document carries none.
func (s *SpotSearcher) SearchNearby(ctx context.Context, search SpotSearch) ([]models.SpotCandidate, error) {
	queryBody := buildNearbyQuery(search)

	body, _ := json.Marshal(queryBody)
	size := search.Size
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("spot search returned %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					PlaceID  string `json:"placeId"`
					Name     string `json:"name"`
					Category string `json:"category"`
					Indoor   bool   `json:"indoor"`
					Location struct {
						Lat float64 `json:"lat"`
						Lon float64 `json:"lon"`
					} `json:"location"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode spot search response: %w", err)
	}

	candidates := make([]models.SpotCandidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		src := hit.Source
		category := src.Category
		if category == "" {
			category = models.InferCategory(src.Name)
		}
		candidates = append(candidates, models.SpotCandidate{
			PlaceID:    src.PlaceID,
			Name:       src.Name,
			Category:   category,
			Lat:        src.Location.Lat,
			Lng:        src.Location.Lon,
			DistanceKm: HaversineKm(search.Lat, search.Lng, src.Location.Lat, src.Location.Lon),
			Indoor:     src.Indoor,
		})
	}
	return candidates, nil
}

func buildNearbyQuery(search SpotSearch) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"geo_distance": map[string]interface{}{
							"distance": fmt.Sprintf("%.2fkm", search.RadiusKm),
							"location": map[string]interface{}{
								"lat": search.Lat,
								"lon": search.Lng,
							},
						},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"location": map[string]interface{}{
						"lat": search.Lat,
						"lon": search.Lng,
					},
					"order": "asc",
					"unit":  "km",
				},
			},
		},
	}
}

// HaversineKm computes great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
