package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "super-secret-jwt-key"
	testUserID = "0b6f3c3e-8a1d-4c55-9a57-3e6f4b2d9c11"
)

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Role: "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testSecret)
	require.True(t, v.Enabled())

	sub, err := v.Verify(signToken(t, testSecret, testUserID, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, testUserID, sub)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "other-secret", testUserID, time.Now().Add(time.Hour))},
		{"expired", signToken(t, testSecret, testUserID, time.Now().Add(-time.Minute))},
		{"non uuid subject", signToken(t, testSecret, "anonymous", time.Now().Add(time.Hour))},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	v := NewVerifier("  ")
	assert.False(t, v.Enabled())

	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	token, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Basic Zm9vOmJhcg==")
	assert.False(t, ok)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)

	_, ok = BearerToken("")
	assert.False(t, ok)
}
