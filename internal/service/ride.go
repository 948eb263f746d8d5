package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/metrics"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
)

const (
	minPassengers = 1
	maxPassengers = 8

	// statusLockTTL bounds how long a crashed writer can block a ride.
	statusLockTTL = 10 * time.Second
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// RideService handles ride requests and their lifecycle.
type RideService struct {
	rideRepo            repository.RideRepository
	userRepo            repository.UserRepository
	cache               redis.RideCacheInterface
	lockStore           redis.LockStoreInterface
	notificationService *NotificationService
	metrics             *metrics.Recorder
	now                 func() time.Time
}

// NewRideService creates a new RideService. cache, lockStore,
// notificationService and recorder may be nil.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	cache redis.RideCacheInterface,
	lockStore redis.LockStoreInterface,
	notificationService *NotificationService,
	recorder *metrics.Recorder,
) *RideService {
	return &RideService{
		rideRepo:            rideRepo,
		userRepo:            userRepo,
		cache:               cache,
		lockStore:           lockStore,
		notificationService: notificationService,
		metrics:             recorder,
		now:                 time.Now,
	}
}

// SubmitRideRequest contains the parameters for a new ride. An empty
// CustomerID is taken from the caller's identity.
type SubmitRideRequest struct {
	CustomerID           string
	PickupLocation       string
	DropoffLocation      string
	ExactPickupLocation  string
	ExactDropoffLocation string
	ContactNumber        string
	PickupDate           string
	PickupTime           string
	NumberOfPassengers   int
	OpenToSharing        bool
	OkToSplitGroup       bool
}

// SubmitRideRequest validates and stores a new ride in Pending Offer.
func (s *RideService) SubmitRideRequest(ctx context.Context, caller *auth.Identity, req SubmitRideRequest) (*domain.Ride, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		customerID = caller.UID
	} else if customerID != caller.UID {
		return nil, fmt.Errorf("%w: customerId does not match token subject", ErrForbidden)
	}

	req = normalizeSubmitRequest(req)
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUID(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("customer %s: %w", customerID, repository.ErrNotFound)
		}
		return nil, storeErr(err)
	}

	now := s.now().UTC()
	ride := &domain.Ride{
		ID:                   uuid.New().String(),
		CustomerID:           customerID,
		PickupLocation:       req.PickupLocation,
		DropoffLocation:      req.DropoffLocation,
		ExactPickupLocation:  req.ExactPickupLocation,
		ExactDropoffLocation: req.ExactDropoffLocation,
		ContactNumber:        req.ContactNumber,
		PickupDate:           req.PickupDate,
		PickupTime:           req.PickupTime,
		NumberOfPassengers:   req.NumberOfPassengers,
		OpenToSharing:        req.OpenToSharing,
		OkToSplitGroup:       req.OkToSplitGroup,
		Status:               domain.RideStatusPendingOffer,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, storeErr(err)
	}

	s.metrics.RideSubmitted()
	slog.InfoContext(ctx, "ride submitted", "ride_id", ride.ID, "customer_id", ride.CustomerID)

	if s.notificationService != nil {
		if err := s.notificationService.NotifyRideSubmitted(ctx, ride); err != nil {
			slog.WarnContext(ctx, "ride submitted notification failed", "ride_id", ride.ID, "error", err)
		}
	}

	return ride, nil
}

// ListRides returns the customer's rides, newest first, narrowed by filter.
// The store is queried each time the sequence is ranged over.
func (s *RideService) ListRides(ctx context.Context, caller *auth.Identity, userUID string, filter domain.StatusFilter) (iter.Seq2[*domain.Ride, error], error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	userUID = strings.TrimSpace(userUID)
	if userUID == "" {
		return nil, invalid("userUid", "is required")
	}
	if userUID != caller.UID {
		return nil, fmt.Errorf("%w: rides belong to another user", ErrForbidden)
	}

	rides := s.rideRepo.ListByCustomer(ctx, userUID, filter)
	return func(yield func(*domain.Ride, error) bool) {
		for ride, err := range rides {
			if err != nil {
				yield(nil, storeErr(err))
				return
			}
			if !yield(ride, nil) {
				return
			}
		}
	}, nil
}

// GetRide returns one of the caller's rides.
func (s *RideService) GetRide(ctx context.Context, caller *auth.Identity, rideID string) (*domain.Ride, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.CustomerID != caller.UID {
		return nil, fmt.Errorf("%w: ride belongs to another user", ErrForbidden)
	}
	return ride, nil
}

// SetStatus moves a ride to next. Setting the current status again is a
// no-op that returns the ride unchanged.
func (s *RideService) SetStatus(ctx context.Context, rideID string, next domain.RideStatus) (*domain.Ride, error) {
	rideID, err := parseRideID(rideID)
	if err != nil {
		return nil, err
	}
	if !next.IsValid() {
		return nil, invalid("status", "unknown ride status")
	}

	if s.lockStore != nil {
		token, acquired, err := s.lockStore.AcquireRideLock(ctx, rideID, statusLockTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: acquire ride lock: %v", ErrUnavailable, err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: ride %s is being updated", ErrConflict, rideID)
		}
		defer func() {
			if err := s.lockStore.ReleaseRideLock(context.WithoutCancel(ctx), rideID, token); err != nil {
				slog.WarnContext(ctx, "release ride lock failed", "ride_id", rideID, "error", err)
			}
		}()
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeErr(err)
	}

	previous := ride.Status
	if previous == next {
		return ride, nil
	}
	if !previous.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, next)
	}

	if err := s.rideRepo.UpdateStatus(ctx, rideID, previous, next); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: ride %s changed concurrently", ErrConflict, rideID)
		}
		return nil, storeErr(err)
	}

	ride.Status = next
	ride.UpdatedAt = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.SetRide(ctx, redis.NewCachedRide(ride)); err != nil {
			slog.WarnContext(ctx, "ride cache write failed", "ride_id", rideID, "error", err)
			if err := s.cache.InvalidateRide(ctx, rideID); err != nil {
				slog.WarnContext(ctx, "ride cache invalidation failed", "ride_id", rideID, "error", err)
			}
		}
	}

	s.metrics.StatusChanged(string(previous), string(next))
	slog.InfoContext(ctx, "ride status changed", "ride_id", rideID, "from", previous, "to", next)

	if s.notificationService != nil {
		if err := s.notificationService.NotifyRideStatusChanged(ctx, ride, previous); err != nil {
			slog.WarnContext(ctx, "status notification failed", "ride_id", rideID, "error", err)
		}
	}

	return ride, nil
}

// CancelRide cancels one of the caller's rides.
func (s *RideService) CancelRide(ctx context.Context, caller *auth.Identity, rideID string) (*domain.Ride, error) {
	ride, err := s.GetRide(ctx, caller, rideID)
	if err != nil {
		return nil, err
	}
	return s.SetStatus(ctx, ride.ID, domain.RideStatusCancelled)
}

func (s *RideService) loadRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	rideID, err := parseRideID(rideID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetRide(ctx, rideID)
		if err != nil {
			slog.WarnContext(ctx, "ride cache read failed", "ride_id", rideID, "error", err)
		} else if cached != nil {
			return cached.Ride(), nil
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeErr(err)
	}

	if s.cache != nil {
		if err := s.cache.FillRide(ctx, redis.NewCachedRide(ride)); err != nil {
			slog.WarnContext(ctx, "ride cache fill failed", "ride_id", rideID, "error", err)
		}
	}
	return ride, nil
}

// parseRideID canonicalises a ride id. Ride ids are UUIDs, so anything else
// cannot name a stored ride.
func parseRideID(rideID string) (string, error) {
	rideID = strings.TrimSpace(rideID)
	if rideID == "" {
		return "", invalid("rideId", "is required")
	}
	id, err := uuid.Parse(rideID)
	if err != nil {
		return "", fmt.Errorf("%w: ride %q", repository.ErrNotFound, rideID)
	}
	return id.String(), nil
}

func normalizeSubmitRequest(req SubmitRideRequest) SubmitRideRequest {
	req.PickupLocation = strings.TrimSpace(req.PickupLocation)
	req.DropoffLocation = strings.TrimSpace(req.DropoffLocation)
	req.ExactPickupLocation = strings.TrimSpace(req.ExactPickupLocation)
	req.ExactDropoffLocation = strings.TrimSpace(req.ExactDropoffLocation)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	req.PickupDate = strings.TrimSpace(req.PickupDate)
	req.PickupTime = strings.TrimSpace(req.PickupTime)
	return req
}

// validateSubmitRequest reports the first invalid field.
func validateSubmitRequest(req SubmitRideRequest) error {
	required := []struct {
		field string
		value string
	}{
		{"pickupLocation", req.PickupLocation},
		{"dropoffLocation", req.DropoffLocation},
		{"exactPickupLocation", req.ExactPickupLocation},
		{"exactDropoffLocation", req.ExactDropoffLocation},
		{"contactNumber", req.ContactNumber},
		{"pickupDate", req.PickupDate},
		{"pickupTime", req.PickupTime},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.field, "is required")
		}
	}

	if !isValidPickupDate(req.PickupDate) {
		return invalid("pickupDate", "must be a calendar date in YYYY-MM-DD format")
	}
	if !isValidPickupTime(req.PickupTime) {
		return invalid("pickupTime", "must be a 24-hour time in HH:MM format")
	}
	if req.NumberOfPassengers < minPassengers || req.NumberOfPassengers > maxPassengers {
		return invalid("numberOfPassengers", fmt.Sprintf("must be between %d and %d", minPassengers, maxPassengers))
	}
	return nil
}

func isValidPickupDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func isValidPickupTime(s string) bool {
	if !timePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
