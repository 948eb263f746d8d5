package firebase

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebook/internal/auth"
)

type stubTokenVerifier struct {
	token *fbauth.Token
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	return s.token, s.err
}

func TestVerifier_MapsClaims(t *testing.T) {
	v := &Verifier{client: &stubTokenVerifier{token: &fbauth.Token{
		UID:    "abc123",
		Claims: map[string]interface{}{"phone_number": "+15551234567"},
	}}}

	id, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, &auth.Identity{UID: "abc123", Phone: "+15551234567"}, id)
}

func TestVerifier_InvalidToken(t *testing.T) {
	v := &Verifier{client: &stubTokenVerifier{err: errors.New("ID token has expired")}}

	_, err := v.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

type recordingSender struct {
	sent []*messaging.Message
}

func (r *recordingSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	r.sent = append(r.sent, message)
	return "projects/p/messages/1", nil
}

func TestPushSender_TargetsCustomerTopic(t *testing.T) {
	rec := &recordingSender{}
	p := &PushSender{client: rec}

	err := p.Push(context.Background(), "abc123", "Ride Offered", "A driver offered your ride", map[string]string{"ride_id": "r1"})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "rides-abc123", rec.sent[0].Topic)
	assert.Equal(t, "Ride Offered", rec.sent[0].Notification.Title)
	assert.Equal(t, "r1", rec.sent[0].Data["ride_id"])
}
