package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/storefront-api/shared/provider"
	"github.com/vasapolrittideah/storefront-api/shared/validation"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type authHTTPHandler struct {
	authUsecase    usecase.AuthUsecase
	sessionUsecase usecase.SessionUsecase
	providers      *provider.Registry
	validator      *validation.Validator
	health         Pinger
	logger         *zerolog.Logger
}

// NewAuthHTTPHandler builds the HTTP router of the auth service. health may be nil.
func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	sessionUsecase usecase.SessionUsecase,
	providers *provider.Registry,
	validator *validation.Validator,
	health Pinger,
	logger *zerolog.Logger,
) http.Handler {
	h := &authHTTPHandler{
		authUsecase:    authUsecase,
		sessionUsecase: sessionUsecase,
		providers:      providers,
		validator:      validator,
		health:         health,
		logger:         logger,
	}

	return h.routes()
}

func (h *authHTTPHandler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/signin/credentials", h.SignInWithCredentials)
		r.Post("/signin/{provider}", h.SignInWithProvider)

		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware)
			r.Get("/session", h.GetSession)
			r.Patch("/session", h.UpdateSession)
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Use(requireAdmin)
		r.Get("/session", h.GetSession)
	})

	return r
}

func (h *authHTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
