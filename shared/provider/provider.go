package provider

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// Profile is the identity a provider vouches for after its own handshake.
type Profile struct {
	Email   string
	Name    string
	Picture string
}

// SignInRequest carries the provider tokens a client obtained.
type SignInRequest struct {
	IDToken     string
	AccessToken string
}

// OAuthProvider verifies provider tokens and returns the profile they describe.
// Implementations make no decisions about local users.
type OAuthProvider interface {
	Name() string
	VerifySignIn(ctx context.Context, req SignInRequest) (*Profile, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]OAuthProvider
}

// NewRegistry registers the given providers. Later providers replace earlier ones with the same name.
func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[string]OAuthProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}
