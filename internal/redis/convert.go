package redis

import "ridebook/internal/domain"

// NewCachedUser converts a domain user to its cached form.
func NewCachedUser(u *domain.User) *CachedUser {
	return &CachedUser{UID: u.UID, Phone: u.Phone, Name: u.Name, CreatedAt: u.CreatedAt}
}

// User converts the cached profile back to a domain user.
func (c *CachedUser) User() *domain.User {
	return &domain.User{UID: c.UID, Phone: c.Phone, Name: c.Name, CreatedAt: c.CreatedAt}
}

// NewCachedRide converts a domain ride to its cached form.
func NewCachedRide(r *domain.Ride) *CachedRide {
	return &CachedRide{
		ID:                   r.ID,
		CustomerID:           r.CustomerID,
		PickupLocation:       r.PickupLocation,
		DropoffLocation:      r.DropoffLocation,
		ExactPickupLocation:  r.ExactPickupLocation,
		ExactDropoffLocation: r.ExactDropoffLocation,
		ContactNumber:        r.ContactNumber,
		PickupDate:           r.PickupDate,
		PickupTime:           r.PickupTime,
		NumberOfPassengers:   r.NumberOfPassengers,
		OpenToSharing:        r.OpenToSharing,
		OkToSplitGroup:       r.OkToSplitGroup,
		Status:               string(r.Status),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// Ride converts the cached ride back to a domain ride.
func (c *CachedRide) Ride() *domain.Ride {
	return &domain.Ride{
		ID:                   c.ID,
		CustomerID:           c.CustomerID,
		PickupLocation:       c.PickupLocation,
		DropoffLocation:      c.DropoffLocation,
		ExactPickupLocation:  c.ExactPickupLocation,
		ExactDropoffLocation: c.ExactDropoffLocation,
		ContactNumber:        c.ContactNumber,
		PickupDate:           c.PickupDate,
		PickupTime:           c.PickupTime,
		NumberOfPassengers:   c.NumberOfPassengers,
		OpenToSharing:        c.OpenToSharing,
		OkToSplitGroup:       c.OkToSplitGroup,
		Status:               domain.RideStatus(c.Status),
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}
