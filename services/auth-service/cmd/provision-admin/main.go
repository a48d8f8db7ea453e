// Command provision-admin grants or revokes the admin flag of an existing user
// and can repair its display name. It is the only path that changes the admin
// flag; sign-in and session updates never do.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/storefront-api/shared/database"
)

func main() {
	var req provisionRequest

	flag.StringVar(&req.Email, "email", "", "email of the user to update")
	flag.StringVar(&req.ID, "id", "", "id of the user to update (instead of -email)")
	flag.BoolVar(&req.Admin, "admin", true, "admin flag to set (use -admin=false to revoke)")
	flag.StringVar(&req.Name, "name", "", "display name to set (optional)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := req.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(req, &logger); err != nil {
		logger.Fatal().Err(err).Str("email", req.Email).Str("user_id", req.ID).Msg("failed to provision admin")
	}
}

func run(req provisionRequest, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoCfg, err := env.ParseAsWithOptions[config.MongoConfig](env.Options{Prefix: "MONGO_"})
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	db, err := database.ConnectMongo(ctx, logger, database.MongoOptions{
		URI:                    mongoCfg.URI,
		Database:               mongoCfg.Database,
		ConnectTimeout:         mongoCfg.ConnectTimeout,
		ServerSelectionTimeout: mongoCfg.ServerSelectionTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(context.Background()) }()

	userRepo := repository.NewUserMongoRepository(ctx, logger, db.Database())

	user, changed, err := provision(ctx, userRepo, req)
	if err != nil {
		return err
	}

	event := logger.Info().Str("user_id", user.ID.Hex()).Str("email", user.Email).Bool("is_admin", user.IsAdmin)
	if !changed {
		event.Msg("user already up to date")
		return nil
	}
	event.Str("name", user.Name).Msg("user updated")

	return nil
}
