package types

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
)

// Trigger tells the enrichment pipeline why a token is being processed.
type Trigger string

const (
	TriggerSignIn Trigger = "signIn"
	TriggerRead   Trigger = "read"
	TriggerUpdate Trigger = "update"
)

// SessionClaims is the payload of a session token.
// Email, Name, Picture and Provider are native sign-in claims; User is the
// identity projection and is the only source of admin and provider data.
type SessionClaims struct {
	Email    string             `json:"email"`
	Name     string             `json:"name,omitempty"`
	Picture  string             `json:"picture,omitempty"`
	Provider string             `json:"provider,omitempty"`
	User     *model.UserProfile `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// Enriched reports whether the claims carry an identity projection.
func (c SessionClaims) Enriched() bool {
	return c.User != nil
}

// Clone returns a deep copy so pipeline stages never share mutable state.
func (c SessionClaims) Clone() SessionClaims {
	out := c
	if c.User != nil {
		user := *c.User
		out.User = &user
	}
	out.Audience = slices.Clone(c.Audience)
	return out
}

// PartialSession carries client-supplied session fields for an update trigger.
// Nil fields are left as they are.
type PartialSession struct {
	Email    *string
	Name     *string
	IsAdmin  *bool
	Provider *string
}

// Apply overlays the non-nil fields onto profile.
func (p PartialSession) Apply(profile model.UserProfile) model.UserProfile {
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.IsAdmin != nil {
		profile.IsAdmin = *p.IsAdmin
	}
	if p.Provider != nil {
		profile.Provider = *p.Provider
	}
	return profile
}

// Session is the per-request view of a session token handed to the rest of the application.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

type SessionUser struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	Provider string `json:"provider,omitempty"`
}

// Tokens is returned to clients after sign-in or a session update.
type Tokens struct {
	SessionToken string  `json:"session_token"`
	Session      Session `json:"session"`
}
