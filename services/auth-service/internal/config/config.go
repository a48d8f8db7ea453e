package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// AuthServiceConfig holds the auth service configuration.
type AuthServiceConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"auth-service"`
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	GRPCAddr    string `env:"GRPC_ADDR"    envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	Mongo  MongoConfig  `envPrefix:"MONGO_"`
	Token  TokenConfig  `envPrefix:"TOKEN_"`
	Google GoogleConfig `envPrefix:"GOOGLE_"`
	Consul ConsulConfig `envPrefix:"CONSUL_"`
}

type MongoConfig struct {
	URI                    string        `env:"URI"`
	Database               string        `env:"DATABASE"                 envDefault:"storefront"`
	ConnectTimeout         time.Duration `env:"CONNECT_TIMEOUT"          envDefault:"10s"`
	ServerSelectionTimeout time.Duration `env:"SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	MaxPoolSize            uint64        `env:"MAX_POOL_SIZE"            envDefault:"100"`
}

type TokenConfig struct {
	Secret    string        `env:"SECRET"`
	Issuer    string        `env:"ISSUER"     envDefault:"storefront"`
	Audience  string        `env:"AUDIENCE"   envDefault:"storefront-web"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"720h"`
	Leeway    time.Duration `env:"LEEWAY"     envDefault:"30s"`
}

type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID"`
	Endpoint string `env:"ENDPOINT"`
}

type ConsulConfig struct {
	Address     string `env:"ADDRESS"`
	ServiceHost string `env:"SERVICE_HOST" envDefault:"localhost"`
	ServicePort int    `env:"SERVICE_PORT" envDefault:"8080"`
}

// Load parses the configuration from environment variables and validates it.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AuthServiceConfig) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("missing MONGO_URI environment variable")
	}
	if c.Token.Secret == "" {
		return errors.New("missing TOKEN_SECRET environment variable")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 characters")
	}
	if c.Token.ExpiresIn <= 0 {
		return errors.New("TOKEN_EXPIRES_IN must be positive")
	}

	return nil
}
