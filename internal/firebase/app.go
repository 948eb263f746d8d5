// Package firebase adapts the Firebase Admin SDK to the service: ID token
// verification for the auth layer and topic pushes for ride status changes.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"ridebook/internal/config"
)

// NewApp initializes the Firebase Admin SDK. Credentials come from the
// configured service account file, or from the ambient Google credentials
// when no file is set.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return app, nil
}
