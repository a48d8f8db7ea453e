package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "storefront"
	testAudience = "storefront-web"
	testSecret   = "test-secret"
)

type testClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func newClaims(issuer, audience string, expiresAt time.Time) *testClaims {
	return &testClaims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator(testAudience, testIssuer, testSecret, 0)

	token, err := a.GenerateToken(newClaims(testIssuer, testAudience, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	var parsed testClaims
	_, err = a.ValidateTokenWithClaims(token, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", parsed.Email)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator(testAudience, testIssuer, testSecret, 0)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, err := a.GenerateToken(newClaims(testIssuer, testAudience, time.Now().Add(-time.Hour)))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "foreign issuer",
			token: func(t *testing.T) string {
				tok, err := a.GenerateToken(newClaims("someone-else", testAudience, time.Now().Add(time.Hour)))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "foreign audience",
			token: func(t *testing.T) string {
				tok, err := a.GenerateToken(newClaims(testIssuer, "other-app", time.Now().Add(time.Hour)))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "different secret",
			token: func(t *testing.T) string {
				other := NewJWTAuthenticator(testAudience, testIssuer, "other-secret", 0)
				tok, err := other.GenerateToken(newClaims(testIssuer, testAudience, time.Now().Add(time.Hour)))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "garbage",
			token: func(*testing.T) string {
				return "not.a.token"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed testClaims
			_, err := a.ValidateTokenWithClaims(tt.token(t), &parsed)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
