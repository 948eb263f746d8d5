package tests

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// errStoreDown simulates a database outage.
var errStoreDown = errors.New("connection refused")

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User // by uid

	// Counters for verification
	CreateCallCount     int32
	GetByPhoneCallCount int32

	// Error injection
	CreateError error
	GetError    error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UID == user.UID || u.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	copy := *user
	m.users[user.UID] = &copy
	return nil
}

func (m *MockUserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	atomic.AddInt32(&m.GetByPhoneCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateName(ctx context.Context, uid, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	user.Name = name
	return nil
}

// CountUsers returns the number of users.
func (m *MockUserRepository) CountUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount       int32
	ListCallCount         int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	ListError         error
	UpdateStatusError error

	// BeforeUpdateStatus runs before the compare-and-set, to simulate a
	// concurrent writer.
	BeforeUpdateStatus func()

	// BeforeCreate runs before a ride is stored, to simulate a slow insert.
	BeforeCreate func()
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.BeforeCreate != nil {
		m.BeforeCreate()
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

// ListByCustomer snapshots matching rides each time the sequence is ranged.
func (m *MockRideRepository) ListByCustomer(ctx context.Context, customerID string, filter domain.StatusFilter) iter.Seq2[*domain.Ride, error] {
	return func(yield func(*domain.Ride, error) bool) {
		atomic.AddInt32(&m.ListCallCount, 1)
		if m.ListError != nil {
			yield(nil, m.ListError)
			return
		}

		m.mu.RLock()
		var matched []*domain.Ride
		for _, r := range m.rides {
			if r.CustomerID == customerID && filter.Matches(r.Status) {
				copy := *r
				matched = append(matched, &copy)
			}
		}
		m.mu.RUnlock()

		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return strings.Compare(matched[i].ID, matched[j].ID) > 0
		})

		for _, r := range matched {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.BeforeUpdateStatus != nil {
		m.BeforeUpdateStatus()
	}
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != from {
		return repository.ErrStatusChanged
	}
	ride.Status = to
	ride.UpdatedAt = time.Now()
	return nil
}

// SetStatus overwrites a stored ride's status (for test setup).
func (m *MockRideRepository) SetStatus(id string, status domain.RideStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ride, ok := m.rides[id]; ok {
		ride.Status = status
	}
}

// GetRide returns ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of the user and ride caches.
type MockCacheStore struct {
	mu    sync.Mutex
	users map[string]*redis.CachedUser
	rides map[string]*redis.CachedRide

	// Counters
	UserHits        int32
	RideHits        int32
	InvalidateCalls int32

	// Error injection
	GetError error

	// BeforeFillRide runs before a read-through fill, to simulate a write
	// landing between the database read and the fill.
	BeforeFillRide func()
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		users: make(map[string]*redis.CachedUser),
		rides: make(map[string]*redis.CachedRide),
	}
}

func (m *MockCacheStore) GetUser(ctx context.Context, phone string) (*redis.CachedUser, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[phone]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.UserHits, 1)
	return user, nil
}

func (m *MockCacheStore) SetUser(ctx context.Context, user *redis.CachedUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Phone] = user
	return nil
}

func (m *MockCacheStore) InvalidateUser(ctx context.Context, phone string) error {
	atomic.AddInt32(&m.InvalidateCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, phone)
	return nil
}

func (m *MockCacheStore) GetRide(ctx context.Context, rideID string) (*redis.CachedRide, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.RideHits, 1)
	return ride, nil
}

func (m *MockCacheStore) SetRide(ctx context.Context, ride *redis.CachedRide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockCacheStore) FillRide(ctx context.Context, ride *redis.CachedRide) error {
	if m.BeforeFillRide != nil {
		m.BeforeFillRide()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		m.rides[ride.ID] = ride
	}
	return nil
}

func (m *MockCacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

// CachedStatus returns the cached status of a ride, or "" if not cached.
func (m *MockCacheStore) CachedStatus(rideID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ride, ok := m.rides[rideID]; ok {
		return ride.Status
	}
	return ""
}

// HasRide reports whether a ride is cached (for test assertions).
func (m *MockCacheStore) HasRide(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rides[rideID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

type mockLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if lock, exists := m.locks[rideID]; exists && time.Now().Before(lock.expiry) {
		return "", false, nil // Lock still held.
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[rideID] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if lock, ok := m.locks[rideID]; ok && lock.token == token {
		delete(m.locks, rideID)
	}
	return nil
}

// Hold marks a ride as locked by another writer, replacing any current
// holder as if its lock had expired.
func (m *MockLockStore) Hold(rideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[rideID] = mockLock{token: "other-writer", expiry: time.Now().Add(time.Minute)}
}

// IsLocked checks if a ride is locked (for test assertions).
func (m *MockLockStore) IsLocked(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[rideID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK IDEMPOTENCY STORE
// ──────────────────────────────────────────────

// MockIdempotencyStore is an in-memory IdempotencyStore. A reserved key
// with no stored response is in flight.
type MockIdempotencyStore struct {
	mu        sync.Mutex
	responses map[string][]byte

	ReleaseCallCount int32
}

// NewMockIdempotencyStore creates a new mock idempotency store.
func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{responses: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[key]; ok {
		return false, nil
	}
	m.responses[key] = nil
	return true, nil
}

func (m *MockIdempotencyStore) GetResponse(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.responses[key]
	if ok && data == nil {
		return nil, redis.ErrRequestInFlight
	}
	return data, nil
}

func (m *MockIdempotencyStore) SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = data
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responses, key)
	return nil
}

// Keys returns the number of reserved or stored keys.
func (m *MockIdempotencyStore) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

// ──────────────────────────────────────────────
// MOCK PUSHER
// ──────────────────────────────────────────────

// PushedMessage records one Push call.
type PushedMessage struct {
	CustomerID string
	Title      string
	Data       map[string]string
}

// MockPusher records pushes instead of delivering them.
type MockPusher struct {
	mu       sync.Mutex
	messages []PushedMessage

	// Error injection
	PushError error
}

func (m *MockPusher) Push(ctx context.Context, customerID, title, body string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PushedMessage{CustomerID: customerID, Title: title, Data: data})
	return m.PushError
}

// Messages returns the recorded pushes.
func (m *MockPusher) Messages() []PushedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PushedMessage(nil), m.messages...)
}

// ──────────────────────────────────────────────
// MOCK TOKEN VERIFIER
// ──────────────────────────────────────────────

// MockVerifier accepts the tokens it was given.
type MockVerifier struct {
	Identities map[string]*auth.Identity

	// Error injection
	VerifyError error
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if m.VerifyError != nil {
		return nil, m.VerifyError
	}
	id, ok := m.Identities[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return id, nil
}

// ──────────────────────────────────────────────
// FIXTURES
// ──────────────────────────────────────────────

// validSubmitRequest returns a request that passes validation.
func validSubmitRequest() service.SubmitRideRequest {
	return service.SubmitRideRequest{
		PickupLocation:       "KGP",
		DropoffLocation:      "CCU",
		ExactPickupLocation:  "Gate 2",
		ExactDropoffLocation: "Terminal 1",
		ContactNumber:        "+15551234567",
		PickupDate:           "2025-03-01",
		PickupTime:           "09:30",
		NumberOfPassengers:   2,
		OpenToSharing:        true,
	}
}

// testRideID is the id of the ride most scenarios seed.
const testRideID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

// identity returns a caller with the given uid.
func identity(uid string) *auth.Identity {
	return &auth.Identity{UID: uid}
}

// seedUser stores a user with uid and phone.
func seedUser(repo *MockUserRepository, uid, phone string) *domain.User {
	user := &domain.User{UID: uid, Phone: phone, CreatedAt: time.Now()}
	repo.AddUser(user)
	return user
}

// seedRide stores a ride owned by customerID in status.
func seedRide(repo *MockRideRepository, id, customerID string, status domain.RideStatus, createdAt time.Time) *domain.Ride {
	ride := &domain.Ride{
		ID:                 id,
		CustomerID:         customerID,
		PickupLocation:     "KGP",
		DropoffLocation:    "CCU",
		PickupDate:         "2025-03-01",
		PickupTime:         "09:30",
		NumberOfPassengers: 1,
		Status:             status,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	repo.AddRide(ride)
	return ride
}
