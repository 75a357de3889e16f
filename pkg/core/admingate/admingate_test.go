package admingate

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := New("correct horse", "session-key", time.Hour, zap.NewNop())
	require.NoError(t, err)
	return gate
}

func TestLoginAndVerify(t *testing.T) {
	gate := newGate(t)

	token, session, err := gate.Login("correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, time.Hour, session.ExpiresAt.Sub(session.IssuedAt))

	verified, err := gate.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, verified.ID)
	assert.True(t, session.ExpiresAt.Equal(verified.ExpiresAt))
}

func TestLogin_WrongPassword(t *testing.T) {
	gate := newGate(t)

	_, _, err := gate.Login("wrong")
	assert.True(t, errors.Is(err, ErrWrongPassword))
}

func TestVerify_Expired(t *testing.T) {
	gate := newGate(t)
	token, _, err := gate.Login("correct horse")
	require.NoError(t, err)

	gate.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = gate.Verify(token)
	assert.True(t, errors.Is(err, ErrSessionExpired))
}

func TestVerify_Invalid(t *testing.T) {
	gate := newGate(t)
	token, _, err := gate.Login("correct horse")
	require.NoError(t, err)

	other, err := New("correct horse", "another-key", time.Hour, zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name  string
		gate  *Gate
		token string
	}{
		{"empty", gate, ""},
		{"garbage", gate, "not-a-token"},
		{"different key", other, token},
		{"tampered", gate, token + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.gate.Verify(tt.token)
			assert.True(t, errors.Is(err, ErrInvalidSession))
		})
	}
}

func TestNew_RequiresPassword(t *testing.T) {
	_, err := New("", "session-key", time.Hour, zap.NewNop())
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = New("pw", "", time.Hour, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_DefaultTTL(t *testing.T) {
	gate, err := New("correct horse", "session-key", 0, zap.NewNop())
	require.NoError(t, err)

	_, session, err := gate.Login("correct horse")
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, session.ExpiresAt.Sub(session.IssuedAt))
}

func TestVerify_TokenWithoutIssuedAt(t *testing.T) {
	gate := newGate(t)

	claims := jwt.RegisteredClaims{
		ID:        "session-1",
		Issuer:    issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("session-key"))
	require.NoError(t, err)

	session, err := gate.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	assert.True(t, session.IssuedAt.IsZero())
}
