package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "PLANNER", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "PLANNER", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, err := NewAccessToken("secret", 1, "VIEWER", 5)
	require.NoError(t, err)

	expired, err := NewAccessToken("secret", 1, "VIEWER", -5)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "PLANNER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignRaw, err := foreign.SignedString([]byte("secret"))
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badSubjectRaw, err := badSubject.SignedString([]byte("secret"))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noneRaw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"issuer":       {"secret", foreignRaw},
		"subject":      {"secret", badSubjectRaw},
		"alg none":     {"secret", noneRaw},
		"garbage":      {"secret", "not.a.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), a.Exp, 5*time.Second)

	h := HashRefreshRaw(a.Raw)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw(a.Raw))
	assert.NotEqual(t, h, HashRefreshRaw(b.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))
}

func TestHashPassword_RejectsWeak(t *testing.T) {
	_, err := HashPassword("short", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrWeakPassword)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = HashPassword(string(long), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrWeakPassword)
}
