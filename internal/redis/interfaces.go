package redis

import (
	"context"
	"time"
)

// UserCacheInterface defines the interface for profile caching.
type UserCacheInterface interface {
	GetUser(ctx context.Context, phone string) (*CachedUser, error)
	SetUser(ctx context.Context, user *CachedUser) error
	InvalidateUser(ctx context.Context, phone string) error
}

// RideCacheInterface defines the interface for ride caching.
type RideCacheInterface interface {
	GetRide(ctx context.Context, rideID string) (*CachedRide, error)
	SetRide(ctx context.Context, ride *CachedRide) error
	FillRide(ctx context.Context, ride *CachedRide) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseRideLock(ctx context.Context, rideID, token string) error
}

// IdempotencyStoreInterface defines the interface for replayable responses.
type IdempotencyStoreInterface interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	GetResponse(ctx context.Context, key string) ([]byte, error)
	SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Ensure concrete types implement interfaces.
var (
	_ UserCacheInterface        = (*CacheStore)(nil)
	_ RideCacheInterface        = (*CacheStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
