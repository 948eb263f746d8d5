package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// topicPrefix names the per-customer FCM topic the mobile client subscribes to.
const topicPrefix = "rides-"

// messageSender is the slice of *messaging.Client used here.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender delivers notifications through Firebase Cloud Messaging.
type PushSender struct {
	client messageSender
}

// NewPushSender creates a PushSender from the app's messaging client.
func NewPushSender(ctx context.Context, app *firebase.App) (*PushSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firebase messaging client: %w", err)
	}
	return &PushSender{client: client}, nil
}

// Push sends a notification to the customer's topic.
func (p *PushSender) Push(ctx context.Context, customerID, title, body string, data map[string]string) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Topic: topicPrefix + customerID,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	if err != nil {
		return fmt.Errorf("send push to %s: %w", customerID, err)
	}
	return nil
}
