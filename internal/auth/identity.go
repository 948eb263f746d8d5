// Package auth verifies caller identity tokens issued by the external identity
// provider and carries the verified identity through request handling.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken is returned for missing, malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrProviderUnavailable is returned when the identity provider cannot be reached.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Identity is the verified subject of a bearer token.
type Identity struct {
	UID   string
	Phone string // empty when the provider did not assert one
}

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
