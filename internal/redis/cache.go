package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	UserCacheTTL = 5 * time.Minute  // Profiles change only on onboarding/rename
	RideCacheTTL = 30 * time.Second // Operators move statuses out of band
)

// Key prefixes
const (
	userCachePrefix = "cache:user:phone:"
	rideCachePrefix = "cache:ride:"
)

// CachedUser represents a cached user profile.
type CachedUser struct {
	UID       string    `json:"uid"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedRide represents a cached ride entity.
type CachedRide struct {
	ID                   string    `json:"id"`
	CustomerID           string    `json:"customer_id"`
	PickupLocation       string    `json:"pickup_location"`
	DropoffLocation      string    `json:"dropoff_location"`
	ExactPickupLocation  string    `json:"exact_pickup_location"`
	ExactDropoffLocation string    `json:"exact_dropoff_location"`
	ContactNumber        string    `json:"contact_number"`
	PickupDate           string    `json:"pickup_date"`
	PickupTime           string    `json:"pickup_time"`
	NumberOfPassengers   int       `json:"number_of_passengers"`
	OpenToSharing        bool      `json:"open_to_sharing"`
	OkToSplitGroup       bool      `json:"ok_to_split_group"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// GetUser retrieves a profile by phone. A miss returns nil, nil.
func (s *CacheStore) GetUser(ctx context.Context, phone string) (*CachedUser, error) {
	var user CachedUser
	found, err := s.get(ctx, userCachePrefix+phone, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SetUser stores a profile in cache.
func (s *CacheStore) SetUser(ctx context.Context, user *CachedUser) error {
	return s.set(ctx, userCachePrefix+user.Phone, user, UserCacheTTL)
}

// InvalidateUser removes a profile from cache.
func (s *CacheStore) InvalidateUser(ctx context.Context, phone string) error {
	return s.client.Del(ctx, userCachePrefix+phone).Err()
}

// GetRide retrieves a ride from cache. A miss returns nil, nil.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*CachedRide, error) {
	var ride CachedRide
	found, err := s.get(ctx, rideCachePrefix+rideID, &ride)
	if err != nil || !found {
		return nil, err
	}
	return &ride, nil
}

// SetRide stores a ride in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *CachedRide) error {
	return s.set(ctx, rideCachePrefix+ride.ID, ride, RideCacheTTL)
}

// FillRide stores a ride read from the database unless an entry already
// exists, so a slow read-through fill never replaces a newer SetRide.
func (s *CacheStore) FillRide(ctx context.Context, ride *CachedRide) error {
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}

func (s *CacheStore) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
