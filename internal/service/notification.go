package service

import (
	"context"
	"log/slog"
	"time"

	"ridebook/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideSubmitted     NotificationType = "RIDE_SUBMITTED"
	NotificationRideStatusChanged NotificationType = "RIDE_STATUS_CHANGED"
	NotificationRideCancelled     NotificationType = "RIDE_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // customer uid
	Title       string
	Message     string
	Data        map[string]string
	CreatedAt   time.Time
}

// Pusher delivers a notification to a customer's devices.
type Pusher interface {
	Push(ctx context.Context, customerID, title, body string, data map[string]string) error
}

// NotificationService tells customers about changes to their rides.
type NotificationService struct {
	pusher Pusher
}

// NewNotificationService creates a new NotificationService. A nil pusher
// logs notifications without delivering them.
func NewNotificationService(pusher Pusher) *NotificationService {
	return &NotificationService{pusher: pusher}
}

var statusMessages = map[domain.RideStatus]string{
	domain.RideStatusRideOffered:            "A driver has offered to take your ride.",
	domain.RideStatusPendingPayment:         "Your ride is confirmed. Please complete payment.",
	domain.RideStatusWaitingForOtherParties: "Payment received. Waiting for the other passengers.",
	domain.RideStatusCompleted:              "Your ride is complete. Thanks for riding!",
	domain.RideStatusCancelled:              "Your ride request has been cancelled.",
}

// NotifyRideSubmitted confirms a new ride request to the customer.
func (s *NotificationService) NotifyRideSubmitted(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideSubmitted,
		RecipientID: ride.CustomerID,
		Title:       "Ride Requested",
		Message:     "We're looking for a driver for " + ride.PickupDate + " " + ride.PickupTime + ".",
		Data: map[string]string{
			"ride_id": ride.ID,
			"status":  string(ride.Status),
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRideStatusChanged tells the customer their ride moved to a new status.
func (s *NotificationService) NotifyRideStatusChanged(ctx context.Context, ride *domain.Ride, previous domain.RideStatus) error {
	notificationType := NotificationRideStatusChanged
	title := "Ride Update"
	if ride.Status == domain.RideStatusCancelled {
		notificationType = NotificationRideCancelled
		title = "Ride Cancelled"
	}

	message, ok := statusMessages[ride.Status]
	if !ok {
		message = "Your ride is now " + string(ride.Status) + "."
	}

	return s.send(ctx, Notification{
		Type:        notificationType,
		RecipientID: ride.CustomerID,
		Title:       title,
		Message:     message,
		Data: map[string]string{
			"ride_id":         ride.ID,
			"status":          string(ride.Status),
			"previous_status": string(previous),
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	slog.InfoContext(ctx, "notification",
		"type", notification.Type,
		"recipient", notification.RecipientID,
		"title", notification.Title,
	)

	if s.pusher == nil {
		return nil
	}
	return s.pusher.Push(ctx, notification.RecipientID, notification.Title, notification.Message, notification.Data)
}
