package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisTimeout = 2 * time.Second

// RedisMirror writes every live record through to Redis before passing it
// on, so a restarted daemon can restore the last known readings. Redis
// failures are logged and never block ingestion.
type RedisMirror struct {
	client redis.Cmdable
	next   Sink
	log    zerolog.Logger
}

// NewRedisMirror wraps next.
func NewRedisMirror(client redis.Cmdable, next Sink, logger zerolog.Logger) *RedisMirror {
	return &RedisMirror{
		client: client,
		next:   next,
		log:    logger.With().Str("component", "redis_mirror").Logger(),
	}
}

// HashKey is the Redis hash holding one location's records of a kind.
func HashKey(locationID string, kind Kind) string {
	return fmt.Sprintf("tenants:%s:%s", locationID, kind)
}

func (m *RedisMirror) Ingest(msg Message) error {
	if err := m.next.Ingest(msg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	key := HashKey(msg.LocationID, msg.Kind)
	var err error
	if len(msg.Payload) == 0 {
		err = m.client.HDel(ctx, key, msg.ID).Err()
	} else {
		err = m.client.HSet(ctx, key, msg.ID, msg.Payload).Err()
	}
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Str("id", msg.ID).Msg("redis write failed")
	}
	return nil
}

// Restore replays the stored records of the given locations into next.
// Records that no longer decode are skipped.
func (m *RedisMirror) Restore(ctx context.Context, locationIDs []string) (int, error) {
	n := 0
	for _, loc := range locationIDs {
		for _, kind := range Kinds {
			key := HashKey(loc, kind)
			entries, err := m.client.HGetAll(ctx, key).Result()
			if err != nil {
				return n, fmt.Errorf("restore %s: %w", key, err)
			}
			for id, payload := range entries {
				if payload == "" {
					continue
				}
				msg := Message{Kind: kind, LocationID: loc, ID: id, Payload: []byte(payload)}
				if err := m.next.Ingest(msg); err != nil {
					continue
				}
				n++
			}
		}
	}
	m.log.Info().Int("records", n).Int("locations", len(locationIDs)).Msg("restored live records")
	return n, nil
}
