package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"ridebook/internal/auth"
)

// phoneClaim is the ID token claim carrying the verified phone number.
const phoneClaim = "phone_number"

// tokenVerifier is the slice of *fbauth.Client used here.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Verifier implements auth.TokenVerifier with Firebase ID tokens.
type Verifier struct {
	client tokenVerifier
}

var _ auth.TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a Verifier backed by the app's Auth client.
func NewVerifier(ctx context.Context, app *firebase.App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// Verify checks the ID token and returns the Firebase uid and phone number.
func (v *Verifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, auth.ErrInvalidToken
	}

	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if fbauth.IsCertificateFetchFailed(err) {
			return nil, fmt.Errorf("%w: %v", auth.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	id := &auth.Identity{UID: tok.UID}
	if phone, ok := tok.Claims[phoneClaim].(string); ok {
		id.Phone = phone
	}
	return id, nil
}
