package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ProviderCredentials is the origin tag of identities created through email and password registration.
const ProviderCredentials = "credentials"

// User represents a storefront identity.
// PasswordHash is empty for identities created through an OAuth provider.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash,omitempty"`
	IsAdmin      bool          `bson:"is_admin"`
	Provider     string        `bson:"provider"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

// HasPassword reports whether the user can sign in with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Profile returns the user without secret material.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID.Hex(),
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		Provider: u.Provider,
	}
}

// UserProfile is the projection of a User that is embedded into session tokens.
type UserProfile struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	Provider string `json:"provider"`
}
