package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const GoogleProviderName = "google"

var (
	ErrInvalidGoogleAudience = errors.New("invalid google audience")
	ErrGoogleEmailMismatch   = errors.New("google userinfo email does not match id token")
	ErrMissingIDToken        = errors.New("id token is required")
	ErrUnverifiedEmail       = errors.New("google email is not verified")
)

// GoogleOAuthProvider verifies Google ID tokens through the tokeninfo endpoint.
type GoogleOAuthProvider struct {
	clientID string
	opts     []option.ClientOption
}

// NewGoogleOAuthProvider creates a provider for clientID. Extra options are passed to
// the Google API client, e.g. option.WithEndpoint for a local stand-in.
func NewGoogleOAuthProvider(clientID string, opts ...option.ClientOption) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		clientID: clientID,
		opts:     opts,
	}
}

func (p *GoogleOAuthProvider) Name() string {
	return GoogleProviderName
}

// VerifySignIn validates the ID token and, when an access token is supplied,
// reads the display name and picture from userinfo.
func (p *GoogleOAuthProvider) VerifySignIn(ctx context.Context, req SignInRequest) (*Profile, error) {
	if req.IDToken == "" {
		return nil, ErrMissingIDToken
	}

	tokenInfo, err := p.validateIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Email: tokenInfo.Email}
	if req.AccessToken == "" {
		return profile, nil
	}

	userInfo, err := p.getUserInfo(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	if userInfo.Email != "" && userInfo.Email != tokenInfo.Email {
		return nil, ErrGoogleEmailMismatch
	}

	profile.Name = userInfo.Name
	profile.Picture = userInfo.Picture

	return profile, nil
}

func (p *GoogleOAuthProvider) validateIDToken(ctx context.Context, idToken string) (*googleoauth2.Tokeninfo, error) {
	opts := append([]option.ClientOption{option.WithoutAuthentication()}, p.opts...)
	oauth2Service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tokenInfo, err := oauth2Service.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo: %w", err)
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}
	// Users are linked by email, so an unverified address could claim someone else's account.
	if tokenInfo.Email != "" && !tokenInfo.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	return tokenInfo, nil
}

func (p *GoogleOAuthProvider) getUserInfo(ctx context.Context, accessToken string) (*googleoauth2.Userinfo, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := append([]option.ClientOption{option.WithTokenSource(tokenSource)}, p.opts...)

	oauth2Service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	userInfo, err := oauth2Service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}

	return userInfo, nil
}
