package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateUnknown is returned when a callback carries a state nonce that was
// never issued or has already been consumed.
var ErrStateUnknown = errors.New("unknown oauth state")

// StateStore issues and consumes single-use CSRF state nonces for the
// federated login round-trip.
type StateStore interface {
	Put(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) error
}

type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore backs state nonces with Redis keys under a fixed TTL.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	return &redisStateStore{client: client, ttl: ttl}
}

func (s *redisStateStore) Put(ctx context.Context, state string) error {
	return s.client.Set(ctx, stateKey(state), "1", s.ttl).Err()
}

func (s *redisStateStore) Consume(ctx context.Context, state string) error {
	// GETDEL makes check-and-consume a single round trip; a replayed state
	// finds nothing.
	res, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err == redis.Nil {
		return ErrStateUnknown
	}
	if err != nil {
		return err
	}
	if res == "" {
		return ErrStateUnknown
	}
	return nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
