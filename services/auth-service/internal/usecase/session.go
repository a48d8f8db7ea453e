package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
	authtypes "github.com/vasapolrittideah/storefront-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/storefront-api/shared/auth"
)

// SessionUsecase turns sign-in events into signed session tokens and tokens into sessions.
// Every method returns new values and never mutates its arguments.
type SessionUsecase interface {
	// IssueToken builds bare claims carrying only native sign-in claims.
	IssueToken(params IssueTokenParams) authtypes.SessionClaims

	// EnrichToken embeds or refreshes the identity projection.
	EnrichToken(
		ctx context.Context,
		claims authtypes.SessionClaims,
		trigger authtypes.Trigger,
		partial *authtypes.PartialSession,
	) (authtypes.SessionClaims, error)

	// ProjectSession derives the per-request session view.
	ProjectSession(claims authtypes.SessionClaims) authtypes.Session

	SignToken(claims authtypes.SessionClaims) (string, error)
	ParseToken(token string) (authtypes.SessionClaims, error)
}

// IssueTokenParams defines the native claims of a fresh sign-in.
type IssueTokenParams struct {
	Email    string
	Name     string
	Picture  string
	Provider string
}

// ProfileFetcher resolves the identity projection for an email.
type ProfileFetcher interface {
	GetUserProfile(ctx context.Context, email string) (*model.UserProfile, error)
}

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrMissingEmailClaim   = errors.New("session token has no email claim")
)

type sessionUsecase struct {
	profiles  ProfileFetcher
	jwtAuth   auth.JWTAuthenticator
	expiresIn time.Duration
	now       func() time.Time
}

// NewSessionUsecase creates a new SessionUsecase.
func NewSessionUsecase(profiles ProfileFetcher, jwtAuth auth.JWTAuthenticator, expiresIn time.Duration) SessionUsecase {
	return &sessionUsecase{
		profiles:  profiles,
		jwtAuth:   jwtAuth,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (u *sessionUsecase) IssueToken(params IssueTokenParams) authtypes.SessionClaims {
	now := u.now()
	return authtypes.SessionClaims{
		Email:    params.Email,
		Name:     params.Name,
		Picture:  params.Picture,
		Provider: params.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   params.Email,
			Issuer:    u.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{u.jwtAuth.Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.expiresIn)),
		},
	}
}

func (u *sessionUsecase) EnrichToken(
	ctx context.Context,
	claims authtypes.SessionClaims,
	trigger authtypes.Trigger,
	partial *authtypes.PartialSession,
) (authtypes.SessionClaims, error) {
	out := claims.Clone()

	if !out.Enriched() {
		if out.Email == "" {
			return authtypes.SessionClaims{}, ErrMissingEmailClaim
		}

		profile, err := u.profiles.GetUserProfile(ctx, out.Email)
		if err != nil {
			return authtypes.SessionClaims{}, err
		}
		out.User = profile
	}

	if trigger == authtypes.TriggerUpdate && partial != nil {
		updated := partial.Apply(*out.User)
		out.User = &updated
	}

	return out, nil
}

func (u *sessionUsecase) ProjectSession(claims authtypes.SessionClaims) authtypes.Session {
	session := authtypes.Session{
		User: authtypes.SessionUser{
			Name:  claims.Name,
			Email: claims.Email,
			Image: claims.Picture,
		},
	}
	if claims.ExpiresAt != nil {
		session.Expires = claims.ExpiresAt.Time
	}

	if user := claims.User; user != nil {
		session.User.ID = user.ID
		session.User.Email = user.Email
		session.User.IsAdmin = user.IsAdmin
		session.User.Provider = user.Provider
		// Name is overlaid as well so a name changed by the update trigger is visible.
		if user.Name != "" {
			session.User.Name = user.Name
		}
	}

	return session
}

func (u *sessionUsecase) SignToken(claims authtypes.SessionClaims) (string, error) {
	return u.jwtAuth.GenerateToken(&claims)
}

func (u *sessionUsecase) ParseToken(token string) (authtypes.SessionClaims, error) {
	var claims authtypes.SessionClaims
	if _, err := u.jwtAuth.ValidateTokenWithClaims(token, &claims); err != nil {
		return authtypes.SessionClaims{}, fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}

	return claims, nil
}
