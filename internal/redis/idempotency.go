package redis

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "idempotency:"

// inFlightValue marks a key whose first request has not finished yet.
var inFlightValue = []byte("in-flight")

// ErrRequestInFlight is returned by GetResponse while the request that
// reserved the key is still running.
var ErrRequestInFlight = errors.New("idempotent request still in flight")

// IdempotencyStore keeps replayable responses for Idempotency-Key requests.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key for the calling request. It returns false if another
// request already holds the key or has stored a response under it.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKeyPrefix+key, inFlightValue, ttl).Result()
}

// GetResponse returns the stored response for key, or nil if none.
func (s *IdempotencyStore) GetResponse(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bytes.Equal(data, inFlightValue) {
		return nil, ErrRequestInFlight
	}
	return data, nil
}

// SetResponse stores the response for a key reserved by the caller,
// replacing the in-flight marker.
func (s *IdempotencyStore) SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err()
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
