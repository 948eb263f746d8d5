package domain

import (
	"errors"
	"strings"
	"time"
)

// RideStatus represents the current status of a ride. Values are the labels
// the mobile client displays and filters on.
type RideStatus string

const (
	RideStatusPendingOffer           RideStatus = "Pending Offer"
	RideStatusRideOffered            RideStatus = "Ride Offered"
	RideStatusPendingPayment         RideStatus = "Pending Payment"
	RideStatusWaitingForOtherParties RideStatus = "Waiting for Other Parties"
	RideStatusCompleted              RideStatus = "Completed"
	RideStatusCancelled              RideStatus = "Cancelled"
)

// ErrUnknownRideStatus is returned when a label does not name a ride status.
var ErrUnknownRideStatus = errors.New("unknown ride status")

// rideLifecycle is the forward order of non-cancelled statuses.
var rideLifecycle = []RideStatus{
	RideStatusPendingOffer,
	RideStatusRideOffered,
	RideStatusPendingPayment,
	RideStatusWaitingForOtherParties,
	RideStatusCompleted,
}

// AllRideStatuses lists every status, lifecycle order first.
func AllRideStatuses() []RideStatus {
	return append(append([]RideStatus(nil), rideLifecycle...), RideStatusCancelled)
}

// ParseRideStatus resolves a status label. Matching ignores case, spaces,
// underscores and hyphens so "Pending Offer", "PendingOffer" and
// "PENDING_OFFER" are equivalent.
func ParseRideStatus(s string) (RideStatus, error) {
	key := normalizeStatusKey(s)
	for _, status := range AllRideStatuses() {
		if normalizeStatusKey(string(status)) == key {
			return status, nil
		}
	}
	return "", ErrUnknownRideStatus
}

func normalizeStatusKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// IsTerminal reports whether no further transition is possible.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsValid reports whether s is one of the defined statuses.
func (s RideStatus) IsValid() bool {
	return s == RideStatusCancelled || s.rank() >= 0
}

func (s RideStatus) rank() int {
	for i, status := range rideLifecycle {
		if status == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether a ride in status s may move to next.
// Moves are forward only and may skip ahead; Cancelled is reachable from any
// non-terminal status. Terminal statuses accept nothing.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == RideStatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}

// StatusFilter narrows a ride listing to one status. The zero value matches
// every ride.
type StatusFilter struct {
	status RideStatus
}

// ParseStatusFilter parses an optional filter. Empty input and "All" mean no
// filter; anything else must name a status.
func ParseStatusFilter(s string) (StatusFilter, error) {
	if key := normalizeStatusKey(s); key == "" || key == "all" {
		return StatusFilter{}, nil
	}
	status, err := ParseRideStatus(s)
	if err != nil {
		return StatusFilter{}, err
	}
	return StatusFilter{status: status}, nil
}

// FilterBy returns a filter matching only status.
func FilterBy(status RideStatus) StatusFilter {
	return StatusFilter{status: status}
}

// Status returns the filtered status and whether the filter is active.
func (f StatusFilter) Status() (RideStatus, bool) {
	return f.status, f.status != ""
}

// Matches reports whether a ride with the given status passes the filter.
func (f StatusFilter) Matches(status RideStatus) bool {
	return f.status == "" || f.status == status
}

// Ride represents a ride request submitted by a customer.
type Ride struct {
	ID                   string
	CustomerID           string
	PickupLocation       string
	DropoffLocation      string
	ExactPickupLocation  string
	ExactDropoffLocation string
	ContactNumber        string
	PickupDate           string // YYYY-MM-DD
	PickupTime           string // HH:MM
	NumberOfPassengers   int
	OpenToSharing        bool
	OkToSplitGroup       bool
	Status               RideStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
