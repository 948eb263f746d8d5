package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// 2. RIDE SUBMISSION
// ──────────────────────────────────────────────

func newSubmissionFixture(t *testing.T) (*service.RideService, *MockRideRepository) {
	t.Helper()
	userRepo := NewMockUserRepository()
	seedUser(userRepo, "abc123", "+15551234567")
	rideRepo := NewMockRideRepository()
	return service.NewRideService(rideRepo, userRepo, nil, nil, nil, nil), rideRepo
}

func TestSubmitRide_ValidInput_CreatesPendingOffer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rideService, rideRepo := newSubmissionFixture(t)

	ride, err := rideService.SubmitRideRequest(ctx, identity("abc123"), validSubmitRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if ride.ID == "" {
		t.Error("expected ride ID to be set")
	}
	if ride.CustomerID != "abc123" {
		t.Errorf("expected customer from token, got %q", ride.CustomerID)
	}
	if ride.Status != domain.RideStatusPendingOffer {
		t.Errorf("expected %q, got %q", domain.RideStatusPendingOffer, ride.Status)
	}

	stored := rideRepo.GetRide(ride.ID)
	if stored == nil {
		t.Fatal("expected ride to be persisted")
	}
	if stored.PickupLocation != "KGP" || stored.DropoffLocation != "CCU" || stored.NumberOfPassengers != 2 || !stored.OpenToSharing {
		t.Errorf("stored ride lost fields: %+v", stored)
	}
}

func TestSubmitRide_KGPToCCU_FoundByPendingOfferFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rideService, _ := newSubmissionFixture(t)

	submitted, err := rideService.SubmitRideRequest(ctx, identity("abc123"), validSubmitRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	rides, err := rideService.ListRides(ctx, identity("abc123"), "abc123", domain.FilterBy(domain.RideStatusPendingOffer))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	found := false
	for ride, err := range rides {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ride.ID == submitted.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected submitted ride in Pending Offer listing")
	}
}

func TestSubmitRide_PassengerBounds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		passengers int
		wantErr    bool
	}{
		{0, true},
		{1, false},
		{8, false},
		{9, true},
		{-1, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("passengers=%d", tc.passengers), func(t *testing.T) {
			t.Parallel()

			rideService, rideRepo := newSubmissionFixture(t)
			req := validSubmitRequest()
			req.NumberOfPassengers = tc.passengers

			_, err := rideService.SubmitRideRequest(context.Background(), identity("abc123"), req)
			if tc.wantErr {
				if !errors.Is(err, service.ErrValidation) {
					t.Errorf("passengers=%d: expected ErrValidation, got: %v", tc.passengers, err)
				}
				if rideRepo.CountRides() != 0 {
					t.Error("expected nothing to be persisted")
				}
				return
			}
			if err != nil {
				t.Errorf("passengers=%d: expected no error, got: %v", tc.passengers, err)
			}
		})
	}
}

func TestSubmitRide_FieldValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		mutate    func(*service.SubmitRideRequest)
		wantField string
	}{
		{"blank pickup", func(r *service.SubmitRideRequest) { r.PickupLocation = "  " }, "pickupLocation"},
		{"blank dropoff", func(r *service.SubmitRideRequest) { r.DropoffLocation = "" }, "dropoffLocation"},
		{"blank exact pickup", func(r *service.SubmitRideRequest) { r.ExactPickupLocation = "" }, "exactPickupLocation"},
		{"blank exact dropoff", func(r *service.SubmitRideRequest) { r.ExactDropoffLocation = "" }, "exactDropoffLocation"},
		{"blank contact", func(r *service.SubmitRideRequest) { r.ContactNumber = "" }, "contactNumber"},
		{"slash date", func(r *service.SubmitRideRequest) { r.PickupDate = "13/2025" }, "pickupDate"},
		{"impossible date", func(r *service.SubmitRideRequest) { r.PickupDate = "2025-02-30" }, "pickupDate"},
		{"short date", func(r *service.SubmitRideRequest) { r.PickupDate = "2025-3-1" }, "pickupDate"},
		{"hour out of range", func(r *service.SubmitRideRequest) { r.PickupTime = "25:00" }, "pickupTime"},
		{"twelve hour time", func(r *service.SubmitRideRequest) { r.PickupTime = "9:30 AM" }, "pickupTime"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rideService, _ := newSubmissionFixture(t)
			req := validSubmitRequest()
			tc.mutate(&req)

			_, err := rideService.SubmitRideRequest(context.Background(), identity("abc123"), req)
			var fieldErr *service.FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got: %v", err)
			}
			if fieldErr.Field != tc.wantField {
				t.Errorf("expected field %q, got %q", tc.wantField, fieldErr.Field)
			}
			if !errors.Is(err, service.ErrValidation) {
				t.Error("expected FieldError to match ErrValidation")
			}
		})
	}
}

func TestSubmitRide_IdentityRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rideService, _ := newSubmissionFixture(t)

	if _, err := rideService.SubmitRideRequest(ctx, nil, validSubmitRequest()); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got: %v", err)
	}

	req := validSubmitRequest()
	req.CustomerID = "someone-else"
	if _, err := rideService.SubmitRideRequest(ctx, identity("abc123"), req); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got: %v", err)
	}

	req.CustomerID = "abc123"
	if _, err := rideService.SubmitRideRequest(ctx, identity("abc123"), req); err != nil {
		t.Errorf("expected explicit matching customer to succeed, got: %v", err)
	}
}

func TestSubmitRide_UnknownCustomerIsNotFound(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideService := service.NewRideService(rideRepo, NewMockUserRepository(), nil, nil, nil, nil)

	_, err := rideService.SubmitRideRequest(context.Background(), identity("ghost"), validSubmitRequest())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	if rideRepo.CountRides() != 0 {
		t.Error("expected nothing to be persisted")
	}
}

func TestSubmitRide_StoreFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	rideService, rideRepo := newSubmissionFixture(t)
	rideRepo.CreateError = errStoreDown

	_, err := rideService.SubmitRideRequest(context.Background(), identity("abc123"), validSubmitRequest())
	if !errors.Is(err, service.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got: %v", err)
	}
}

func TestSubmitRide_MultipleRidesAreDistinct(t *testing.T) {
	t.Parallel()

	rideService, rideRepo := newSubmissionFixture(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		ride, err := rideService.SubmitRideRequest(context.Background(), identity("abc123"), validSubmitRequest())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if seen[ride.ID] {
			t.Fatalf("duplicate ride ID %s", ride.ID)
		}
		seen[ride.ID] = true
	}

	if rideRepo.CountRides() != 5 {
		t.Errorf("expected 5 rides, got %d", rideRepo.CountRides())
	}
}
