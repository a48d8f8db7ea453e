package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository/repofake"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/storefront-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/storefront-api/shared/auth"
	"github.com/vasapolrittideah/storefront-api/shared/provider"
	"github.com/vasapolrittideah/storefront-api/shared/validation"
)

const testTokenSecret = "0123456789abcdef0123456789abcdef"

type fakeProvider struct {
	name    string
	profile *provider.Profile
	err     error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) VerifySignIn(context.Context, provider.SignInRequest) (*provider.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	profile := *p.profile
	return &profile, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type handlerFixture struct {
	userRepo *repofake.FakeUserRepo
	google   *fakeProvider
	session  usecase.SessionUsecase
	health   *fakePinger
	router   http.Handler
}

func setupHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := zerolog.New(io.Discard)
	userRepo := repofake.NewFakeUserRepo()
	authUsecase := usecase.NewAuthUsecase(userRepo, nil, &logger)
	jwtAuth := auth.NewJWTAuthenticator("storefront-web", "storefront", testTokenSecret, 0)
	sessionUsecase := usecase.NewSessionUsecase(authUsecase, jwtAuth, time.Hour)

	google := &fakeProvider{name: "google", profile: &provider.Profile{Email: "b@x.com", Name: "B"}}
	v, err := validation.New()
	require.NoError(t, err)

	health := &fakePinger{}

	return &handlerFixture{
		userRepo: userRepo,
		google:   google,
		session:  sessionUsecase,
		health:   health,
		router: NewAuthHTTPHandler(
			authUsecase,
			sessionUsecase,
			provider.NewRegistry(google),
			v,
			health,
			&logger,
		),
	}
}

func (f *handlerFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) register(t *testing.T, name, email, password string) {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"` + password + `"}`
	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *handlerFixture) signIn(t *testing.T, email, password string) authtypes.Tokens {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/credentials", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return decode[authtypes.Tokens](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Register(t *testing.T) {
	t.Run("201 - creates credentials user", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", `{"name":"Alice","email":"a@x.com","password":"secret123"}`, "")

		require.Equal(t, http.StatusCreated, rec.Code)
		got := decode[RegisterResponse](t, rec)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "credentials", got.Provider)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("409 - duplicate email", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")

		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", `{"name":"Alice","email":"a@x.com","password":"secret123"}`, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("400 - validation errors name fields", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", `{"name":"","email":"nope","password":"short"}`, "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode[ErrorResponse](t, rec)
		assert.Contains(t, got.Fields, "name")
		assert.Contains(t, got.Fields, "email")
		assert.Contains(t, got.Fields, "password")
	})

	t.Run("400 - invalid json body", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", `{"name": "`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("400 - admin flag cannot be self-assigned", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/register", `{"name":"A","email":"a@x.com","password":"secret123","isAdmin":true}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, f.userRepo.Count())
	})
}

func TestHandler_SignInWithCredentials(t *testing.T) {
	t.Run("200 - returns enriched token and session", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")

		tokens := f.signIn(t, "a@x.com", "secret123")

		assert.NotEmpty(t, tokens.SessionToken)
		assert.NotEmpty(t, tokens.Session.User.ID)
		assert.Equal(t, "a@x.com", tokens.Session.User.Email)
		assert.Equal(t, "credentials", tokens.Session.User.Provider)
		assert.False(t, tokens.Session.User.IsAdmin)

		claims, err := f.session.ParseToken(tokens.SessionToken)
		require.NoError(t, err)
		assert.True(t, claims.Enriched())
	})

	t.Run("401 - wrong password and unknown email look the same", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")

		wrong := f.do(t, http.MethodPost, "/api/v1/auth/signin/credentials", `{"email":"a@x.com","password":"wrong-pass"}`, "")
		unknown := f.do(t, http.MethodPost, "/api/v1/auth/signin/credentials", `{"email":"z@x.com","password":"secret123"}`, "")

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("500 - storage failure", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.userRepo.Err = errors.New("connection reset")

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/credentials", `{"email":"a@x.com","password":"secret123"}`, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}

func TestHandler_SignInWithProvider(t *testing.T) {
	t.Run("200 - first sign-in creates google user", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		tokens := decode[authtypes.Tokens](t, rec)
		assert.Equal(t, "b@x.com", tokens.Session.User.Email)
		assert.Equal(t, "google", tokens.Session.User.Provider)
		assert.False(t, tokens.Session.User.IsAdmin)
		assert.Equal(t, 1, f.userRepo.Count())
	})

	t.Run("200 - id token without name still yields a named identity", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.google.profile = &provider.Profile{Email: "b@x.com"}

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "b", decode[authtypes.Tokens](t, rec).Session.User.Name)

		stored, err := f.userRepo.GetUserByEmail(context.Background(), "b@x.com")
		require.NoError(t, err)
		assert.Equal(t, "b", stored.Name)
	})

	t.Run("200 - repeated sign-in keeps one user", func(t *testing.T) {
		f := setupHandlerFixture(t)

		for range 2 {
			rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		assert.Equal(t, 1, f.userRepo.Count())
	})

	t.Run("200 - google sign-in for a credentials user keeps its provider", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "b@x.com", "secret123")

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		tokens := decode[authtypes.Tokens](t, rec)
		assert.Equal(t, "credentials", tokens.Session.User.Provider)
	})

	t.Run("404 - unknown provider", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/github", `{"id_token":"id"}`, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("401 - provider rejects token", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.google.err = provider.ErrInvalidGoogleAudience

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, f.userRepo.Count())
	})

	t.Run("400 - profile without email", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.google.profile = &provider.Profile{Name: "B"}

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{"id_token":"id"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("400 - missing id token", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin/google", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Session(t *testing.T) {
	t.Run("200 - returns projected session", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		tokens := f.signIn(t, "a@x.com", "secret123")

		rec := f.do(t, http.MethodGet, "/api/v1/auth/session", "", tokens.SessionToken)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[authtypes.Session](t, rec)
		assert.Equal(t, tokens.Session.User, got.User)
		assert.Empty(t, rec.Header().Get(sessionTokenHeader))
	})

	t.Run("200 - bare token is enriched and re-issued", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		bare, err := f.session.SignToken(f.session.IssueToken(usecase.IssueTokenParams{Email: "a@x.com", Name: "Alice"}))
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/api/v1/auth/session", "", bare)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[authtypes.Session](t, rec)
		assert.NotEmpty(t, got.User.ID)
		assert.Equal(t, "credentials", got.User.Provider)

		reissued, err := f.session.ParseToken(rec.Header().Get(sessionTokenHeader))
		require.NoError(t, err)
		assert.True(t, reissued.Enriched())
	})

	t.Run("401 - bare token for a user that no longer resolves", func(t *testing.T) {
		f := setupHandlerFixture(t)
		bare, err := f.session.SignToken(f.session.IssueToken(usecase.IssueTokenParams{Email: "ghost@x.com"}))
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/api/v1/auth/session", "", bare)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("401 - missing or invalid token", func(t *testing.T) {
		f := setupHandlerFixture(t)

		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/auth/session", "", "").Code)
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/auth/session", "", "garbage").Code)
	})

	t.Run("200 - update changes name only", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		tokens := f.signIn(t, "a@x.com", "secret123")

		rec := f.do(t, http.MethodPatch, "/api/v1/auth/session", `{"name":"New Name"}`, tokens.SessionToken)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[authtypes.Tokens](t, rec)
		assert.Equal(t, "New Name", updated.Session.User.Name)
		assert.Equal(t, tokens.Session.User.Email, updated.Session.User.Email)
		assert.Equal(t, tokens.Session.User.IsAdmin, updated.Session.User.IsAdmin)
		assert.Equal(t, tokens.Session.User.Provider, updated.Session.User.Provider)

		stored, err := f.userRepo.GetUserByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "Alice", stored.Name, "update trigger must not touch stored user")

		rec = f.do(t, http.MethodGet, "/api/v1/auth/session", "", updated.SessionToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "New Name", decode[authtypes.Session](t, rec).User.Name)
	})

	t.Run("400 - update cannot grant admin", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		tokens := f.signIn(t, "a@x.com", "secret123")

		rec := f.do(t, http.MethodPatch, "/api/v1/auth/session", `{"isAdmin":true}`, tokens.SessionToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_AdminGate(t *testing.T) {
	t.Run("403 - regular user", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		tokens := f.signIn(t, "a@x.com", "secret123")

		rec := f.do(t, http.MethodGet, "/api/v1/admin/session", "", tokens.SessionToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("200 - admin provisioned out of band", func(t *testing.T) {
		f := setupHandlerFixture(t)
		f.register(t, "Alice", "a@x.com", "secret123")
		user, err := f.userRepo.GetUserByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		isAdmin := true
		_, err = f.userRepo.UpdateUser(context.Background(), user.ID.Hex(), repository.UpdateUserParams{IsAdmin: &isAdmin})
		require.NoError(t, err)

		tokens := f.signIn(t, "a@x.com", "secret123")

		rec := f.do(t, http.MethodGet, "/api/v1/admin/session", "", tokens.SessionToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[authtypes.Session](t, rec).User.IsAdmin)
	})

	t.Run("401 - no token", func(t *testing.T) {
		f := setupHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/admin/session", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandler_Healthz(t *testing.T) {
	f := setupHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	f.health.err = errors.New("mongo down")
	rec = f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
