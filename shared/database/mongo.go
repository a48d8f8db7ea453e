package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const defaultConnectTimeout = 10 * time.Second

// MongoOptions configures the process-wide Mongo connection.
type MongoOptions struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

// Mongo owns the connection pool shared by every repository.
// It is created once at startup and handed to components explicitly.
type Mongo struct {
	client    *mongo.Client
	db        *mongo.Database
	logger    *zerolog.Logger
	closeOnce sync.Once
}

// ConnectMongo opens the pool and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, logger *zerolog.Logger, opts MongoOptions) (*Mongo, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongo database is required")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout)
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info().Str("database", opts.Database).Msg("connected to mongo")

	return &Mongo{
		client: client,
		db:     client.Database(opts.Database),
		logger: logger,
	}, nil
}

// Database returns the configured database handle.
func (m *Mongo) Database() *mongo.Database {
	return m.db
}

// Ping checks that the primary is still reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the pool. Calls after the first are no-ops.
func (m *Mongo) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		err = m.client.Disconnect(ctx)
		if err == nil {
			m.logger.Info().Msg("disconnected from mongo")
		}
	})
	return err
}
