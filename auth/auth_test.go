package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginAndValidate(t *testing.T) {
	s := NewSessions("s3cret", time.Hour)
	require.True(t, s.Enabled())

	_, err := s.Login("wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	token, err := s.Login("s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, s.Valid(token))
	require.False(t, s.Valid("forged"))
	require.False(t, s.Valid(""))

	other, err := s.Login("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	s.Revoke(token)
	require.False(t, s.Valid(token))
	require.True(t, s.Valid(other))
}

func TestTokensExpire(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions("pw", 30*time.Minute)
	s.now = func() time.Time { return now }

	token, err := s.Login("pw")
	require.NoError(t, err)

	now = now.Add(29 * time.Minute)
	require.True(t, s.Valid(token))

	now = now.Add(time.Minute)
	require.False(t, s.Valid(token))
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	s := NewSessions("", 0)
	require.False(t, s.Enabled())
	require.Equal(t, DefaultTTL, s.TTL())

	_, err := s.Login("")
	require.ErrorIs(t, err, ErrDisabled)
}
