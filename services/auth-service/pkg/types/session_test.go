package types

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
)

func TestSessionClaims_Clone(t *testing.T) {
	claims := SessionClaims{
		Email: "a@x.com",
		User:  &model.UserProfile{ID: "1", Email: "a@x.com", Name: "A"},
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{"storefront-web"},
		},
	}

	clone := claims.Clone()
	clone.User.Name = "B"
	clone.Audience[0] = "other"

	assert.Equal(t, "A", claims.User.Name)
	assert.Equal(t, "storefront-web", claims.Audience[0])
	assert.True(t, clone.Enriched())
	assert.False(t, SessionClaims{Email: "a@x.com"}.Clone().Enriched())
}

func TestPartialSession_Apply(t *testing.T) {
	profile := model.UserProfile{ID: "1", Email: "a@x.com", Name: "A", IsAdmin: true, Provider: "google"}
	name := "B"

	got := PartialSession{Name: &name}.Apply(profile)

	assert.Equal(t, "B", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "google", got.Provider)
	assert.Equal(t, "A", profile.Name)
	assert.Equal(t, profile, PartialSession{}.Apply(profile))
}
