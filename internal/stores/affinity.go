// internal/stores/affinity.go
package stores

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AffinityStore accumulates implicit-feedback weights per user and
// category in a redis hash. HINCRBYFLOAT keeps concurrent increments
// commutative with no read-modify-write.
type AffinityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAffinityStore(client *redis.Client, ttl time.Duration) *AffinityStore {
	return &AffinityStore{client: client, ttl: ttl}
}

func affinityKey(userID string) string {
	return "affinity:" + userID
}

// Increment adds an event weight to a user's category affinity.
func (s *AffinityStore) Increment(ctx context.Context, userID, category string, weight float64) error {
	key := affinityKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HIncrByFloat(ctx, key, category, weight)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// All returns every category affinity for a user. Missing keys yield an
// empty map, not an error.
func (s *AffinityStore) All(ctx context.Context, userID string) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, affinityKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	affinities := make(map[string]float64, len(raw))
	for category, val := range raw {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			continue
		}
		affinities[category] = f
	}
	return affinities, nil
}
