package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/storefront-api/services/auth-service/pkg/types"
)

const (
	requestIDHeader    = "X-Request-ID"
	sessionTokenHeader = "X-Session-Token"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	sessionClaimsKey
	sessionKey
)

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id assigned by the request id middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// sessionMiddleware resolves the bearer session token into claims and a projected
// session. A token that was issued bare is enriched here and the re-signed token is
// returned in the X-Session-Token header.
func (h *authHTTPHandler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := h.sessionUsecase.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		wasEnriched := claims.Enriched()
		claims, err = h.sessionUsecase.EnrichToken(r.Context(), claims, authtypes.TriggerRead, nil)
		if err != nil {
			h.writeEnrichError(w, err)
			return
		}

		if !wasEnriched {
			signed, err := h.sessionUsecase.SignToken(claims)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to sign session token")
				writeError(w, http.StatusInternalServerError, "something went wrong")
				return
			}
			w.Header().Set(sessionTokenHeader, signed)
		}

		session := h.sessionUsecase.ProjectSession(claims)

		ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
		ctx = context.WithValue(ctx, sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.User.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the session projected by the session middleware.
func SessionFromContext(ctx context.Context) (authtypes.Session, bool) {
	session, ok := ctx.Value(sessionKey).(authtypes.Session)
	return session, ok
}

func sessionClaimsFromContext(ctx context.Context) (authtypes.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(authtypes.SessionClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

func (h *authHTTPHandler) writeEnrichError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrIdentityNotFound), errors.Is(err, usecase.ErrMissingEmailClaim):
		writeError(w, http.StatusUnauthorized, "session is no longer valid, please sign in again")
	default:
		h.logger.Error().Err(err).Msg("failed to enrich session token")
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
