package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/storefront-api/shared/provider"
	"github.com/vasapolrittideah/storefront-api/shared/security"
)

// AuthUsecase defines the interface for identity resolution use cases.
type AuthUsecase interface {
	// Register creates a credentials identity. The password is hashed once here and never re-derived.
	Register(ctx context.Context, params RegisterParams) (*model.User, error)

	// VerifyCredentials returns the user whose password matches, or ErrInvalidCredentials.
	VerifyCredentials(ctx context.Context, email, password string) (*model.User, error)

	// HandleOAuthSignIn links a provider sign-in to an existing user or creates one.
	// It reports true when the sign-in may proceed.
	HandleOAuthSignIn(ctx context.Context, providerName string, profile provider.Profile) (bool, error)

	// GetUserProfile returns the user for email without secret material.
	GetUserProfile(ctx context.Context, email string) (*model.UserProfile, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// WelcomeSender delivers the message sent after registration.
type WelcomeSender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingProfileEmail = errors.New("oauth profile has no email")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrStorageFailure      = errors.New("storage failure")
	ErrUserAlreadyExists   = errors.New("user already exists")
)

type authUsecase struct {
	userRepo repository.UserRepository
	welcome  WelcomeSender
	logger   *zerolog.Logger
}

// NewAuthUsecase creates a new AuthUsecase. welcome may be nil.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	welcome WelcomeSender,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		welcome:  welcome,
		logger:   logger,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: passwordHash,
		Provider:     model.ProviderCredentials,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}

		return nil, storageFailure(err)
	}

	if u.welcome != nil {
		go u.sendWelcome(*user)
	}

	return user, nil
}

func (u *authUsecase) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			security.BurnVerification(password)
			return nil, ErrInvalidCredentials
		}

		return nil, storageFailure(err)
	}

	if !user.HasPassword() {
		security.BurnVerification(password)
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (u *authUsecase) HandleOAuthSignIn(
	ctx context.Context,
	providerName string,
	profile provider.Profile,
) (bool, error) {
	if profile.Email == "" {
		return false, ErrMissingProfileEmail
	}

	_, err := u.userRepo.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		// An existing user is never modified by a provider sign-in.
		return true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, storageFailure(err)
	}

	_, err = u.userRepo.CreateUser(ctx, &model.User{
		Name:     profileDisplayName(profile),
		Email:    profile.Email,
		Provider: providerName,
	})
	if err == nil {
		u.logger.Info().Str("provider", providerName).Msg("created user from oauth sign-in")
		return true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return false, storageFailure(err)
	}

	// A concurrent first sign-in created the user between lookup and insert.
	if _, err := u.userRepo.GetUserByEmail(ctx, profile.Email); err != nil {
		return false, storageFailure(err)
	}

	return true, nil
}

func (u *authUsecase) GetUserProfile(ctx context.Context, email string) (*model.UserProfile, error) {
	profile, err := u.userRepo.GetUserProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}

		return nil, storageFailure(err)
	}

	return profile, nil
}

// sendWelcome runs outside the request; a failed delivery is only logged.
func (u *authUsecase) sendWelcome(user model.User) {
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your storefront account has been created. You can now sign in with %s.</p>
		<p>Thank you for shopping with us.</p>
	`, html.EscapeString(user.Name), html.EscapeString(user.Email))

	if err := u.welcome.SendHTML([]string{user.Email}, "Welcome to the store", htmlBody); err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send welcome email")
	}
}

// profileDisplayName falls back to the local part of the email when the provider
// returned no name.
func profileDisplayName(profile provider.Profile) string {
	if name := strings.TrimSpace(profile.Name); name != "" {
		return name
	}

	localPart, _, _ := strings.Cut(profile.Email, "@")
	return localPart
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
