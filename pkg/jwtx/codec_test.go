package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("missing secret is a config error", func(t *testing.T) {
		_, err := NewCodec("", time.Minute, "owt-auth")
		require.ErrorIs(t, err, ErrNoSecret)
	})

	t.Run("non-positive ttl rejected", func(t *testing.T) {
		_, err := NewCodec("secret", 0, "owt-auth")
		require.Error(t, err)
	})

	t.Run("valid configuration", func(t *testing.T) {
		c, err := NewCodec("secret", 15*time.Minute, "owt-auth")
		require.NoError(t, err)
		require.Equal(t, 15*time.Minute, c.TTL())
	})
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCodec("access-secret", 15*time.Minute, "owt-auth")
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := c.Sign("01ARZ3NDEKTSV4RRFFQ69G5FAV", "a@x.com", now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := c.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)
	require.WithinDuration(t, now, claims.IssuedAt.Time, time.Second)
	require.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestCodecContextsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	access, err := NewCodec("access-secret", 15*time.Minute, "owt-auth")
	require.NoError(t, err)
	refresh, err := NewCodec("refresh-secret", 7*24*time.Hour, "owt-auth")
	require.NoError(t, err)

	now := time.Now().UTC()

	accessToken, err := access.Sign("acc-1", "a@x.com", now)
	require.NoError(t, err)
	refreshToken, err := refresh.Sign("acc-1", "a@x.com", now)
	require.NoError(t, err)

	_, err = refresh.Verify(accessToken)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = access.Verify(refreshToken)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCodecVerifyExpired(t *testing.T) {
	t.Parallel()

	c, err := NewCodec("access-secret", time.Minute, "owt-auth")
	require.NoError(t, err)

	// Sign far enough in the past that exp is behind the current time.
	past := time.Now().UTC().Add(-time.Hour)
	token, err := c.Sign("acc-1", "a@x.com", past)
	require.NoError(t, err)

	_, err = c.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
	require.NotErrorIs(t, err, ErrInvalid, "stale must be distinguishable from forged")
}

func TestCodecVerifyInvalid(t *testing.T) {
	t.Parallel()

	c, err := NewCodec("access-secret", time.Minute, "owt-auth")
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := c.Verify("not.a.token")
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := c.Sign("acc-1", "a@x.com", time.Now().UTC())
		require.NoError(t, err)

		_, err = c.Verify(token + "x")
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("missing required claims", func(t *testing.T) {
		// A structurally valid token signed with the right secret but
		// without subject/email must still be rejected.
		bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "owt-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		})
		signed, err := bare.SignedString([]byte("access-secret"))
		require.NoError(t, err)

		_, err = c.Verify(signed)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewCodec("access-secret", time.Minute, "someone-else")
		require.NoError(t, err)

		token, err := other.Sign("acc-1", "a@x.com", time.Now().UTC())
		require.NoError(t, err)

		_, err = c.Verify(token)
		require.ErrorIs(t, err, ErrInvalid)
	})
}
