package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims understood by JWTVerifier. The subject is the
// user's uid.
type Claims struct {
	Phone string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens signed with a shared secret. It stands in
// for the hosted identity provider in development and tests.
type JWTVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTVerifier creates a verifier for tokens from issuer signed with secret.
func NewJWTVerifier(secret, issuer string, ttl time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

var _ TokenVerifier = (*JWTVerifier)(nil)

// Issue mints a token for uid.
func (v *JWTVerifier) Issue(uid, phone string) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}
	now := time.Now()
	claims := &Claims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify checks signature, expiry and issuer.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{UID: claims.Subject, Phone: claims.Phone}, nil
}
