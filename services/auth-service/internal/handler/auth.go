package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/storefront-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/storefront-api/shared/provider"
)

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, "user already exists")
		default:
			h.logger.Error().Err(err).Msg("failed to register user")
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		ID:       user.ID.Hex(),
		Name:     user.Name,
		Email:    user.Email,
		Provider: user.Provider,
	})
}

func (h *authHTTPHandler) SignInWithCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsSignInRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authUsecase.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid email or password")
		default:
			h.logger.Error().Err(err).Msg("failed to verify credentials")
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	h.issueSession(r.Context(), w, usecase.IssueTokenParams{
		Email:    user.Email,
		Name:     user.Name,
		Provider: model.ProviderCredentials,
	})
}

func (h *authHTTPHandler) SignInWithProvider(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	oauthProvider, err := h.providers.Get(providerName)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	var req OAuthSignInRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := oauthProvider.VerifySignIn(r.Context(), provider.SignInRequest{
		IDToken:     req.IDToken,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", providerName).Msg("provider rejected sign-in")
		writeError(w, http.StatusUnauthorized, "provider sign-in failed")
		return
	}

	allowed, err := h.authUsecase.HandleOAuthSignIn(r.Context(), providerName, *profile)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingProfileEmail):
			writeError(w, http.StatusBadRequest, "provider did not return an email address")
		default:
			h.logger.Error().Err(err).Str("provider", providerName).Msg("failed to link oauth sign-in")
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "sign-in not allowed")
		return
	}

	h.issueSession(r.Context(), w, usecase.IssueTokenParams{
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
		Provider: providerName,
	})
}

// issueSession runs a fresh sign-in through the enrichment pipeline and writes the signed token.
func (h *authHTTPHandler) issueSession(ctx context.Context, w http.ResponseWriter, params usecase.IssueTokenParams) {
	claims := h.sessionUsecase.IssueToken(params)

	claims, err := h.sessionUsecase.EnrichToken(ctx, claims, authtypes.TriggerSignIn, nil)
	if err != nil {
		h.writeEnrichError(w, err)
		return
	}

	h.writeTokens(w, claims)
}

func (h *authHTTPHandler) writeTokens(w http.ResponseWriter, claims authtypes.SessionClaims) {
	signed, err := h.sessionUsecase.SignToken(claims)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign session token")
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, authtypes.Tokens{
		SessionToken: signed,
		Session:      h.sessionUsecase.ProjectSession(claims),
	})
}
