package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/storefront-api/shared/auth"
	"github.com/vasapolrittideah/storefront-api/shared/database"
	"github.com/vasapolrittideah/storefront-api/shared/discovery"
	"github.com/vasapolrittideah/storefront-api/shared/mailer"
	"github.com/vasapolrittideah/storefront-api/shared/provider"
	"github.com/vasapolrittideah/storefront-api/shared/utilities"
	"github.com/vasapolrittideah/storefront-api/shared/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	logger = logger.Level(level).With().Str("service", cfg.ServiceName).Logger()

	if err := run(cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("auth service stopped with error")
	}
}

func run(cfg *config.AuthServiceConfig, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectMongo(ctx, logger, database.MongoOptions{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("failed to close mongo connection")
		}
	}()

	userRepo := repository.NewUserMongoRepository(ctx, logger, db.Database())

	authUsecase := usecase.NewAuthUsecase(userRepo, newWelcomeSender(logger), logger)
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer, cfg.Token.Secret, cfg.Token.Leeway)
	sessionUsecase := usecase.NewSessionUsecase(authUsecase, jwtAuth, cfg.Token.ExpiresIn)

	v, err := validation.New()
	if err != nil {
		return err
	}

	router := handler.NewAuthHTTPHandler(
		authUsecase,
		sessionUsecase,
		newProviderRegistry(cfg, logger),
		v,
		db,
		logger,
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.ServiceName)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	registrar := registerWithConsul(cfg, logger)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down auth service")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("server failed, shutting down")
	}

	utilities.SetNotServing(healthServer)
	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			logger.Error().Err(err).Msg("failed to deregister from consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down http server")
	}
	grpcServer.GracefulStop()

	return serveErr
}

// registerWithConsul returns nil when Consul is not configured or unreachable.
func registerWithConsul(cfg *config.AuthServiceConfig, logger *zerolog.Logger) *discovery.ConsulRegistrar {
	if cfg.Consul.Address == "" {
		return nil
	}

	registrar, err := discovery.NewConsulRegistrar(cfg.Consul.Address, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create consul client")
		return nil
	}

	err = registrar.Register(discovery.Registration{
		ServiceName: cfg.ServiceName,
		Host:        cfg.Consul.ServiceHost,
		Port:        cfg.Consul.ServicePort,
		HealthPath:  "/healthz",
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to register with consul")
		return nil
	}

	return registrar
}

func newWelcomeSender(logger *zerolog.Logger) usecase.WelcomeSender {
	mailCfg, err := mailer.LoadConfig()
	if errors.Is(err, mailer.ErrNotConfigured) {
		logger.Info().Msg("smtp not configured, welcome emails disabled")
		return nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("invalid smtp config, welcome emails disabled")
		return nil
	}

	m, err := mailer.NewMailer(mailCfg)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to create mailer, welcome emails disabled")
		return nil
	}

	return m
}

func newProviderRegistry(cfg *config.AuthServiceConfig, logger *zerolog.Logger) *provider.Registry {
	if cfg.Google.ClientID == "" {
		logger.Warn().Msg("GOOGLE_CLIENT_ID is empty, google sign-in will reject every token")
	}

	var opts []option.ClientOption
	if cfg.Google.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Google.Endpoint))
	}

	return provider.NewRegistry(provider.NewGoogleOAuthProvider(cfg.Google.ClientID, opts...))
}
