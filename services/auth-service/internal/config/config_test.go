package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("TOKEN_SECRET", strings.Repeat("s", 32))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "storefront", cfg.Mongo.Database)
		assert.Equal(t, 720*time.Hour, cfg.Token.ExpiresIn)
		assert.Equal(t, "storefront", cfg.Token.Issuer)
		assert.Empty(t, cfg.Consul.Address)
	})

	t.Run("reads prefixed values", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://db:27017")
		t.Setenv("MONGO_DATABASE", "shop")
		t.Setenv("TOKEN_SECRET", strings.Repeat("s", 32))
		t.Setenv("TOKEN_EXPIRES_IN", "1h")
		t.Setenv("GOOGLE_CLIENT_ID", "client-123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shop", cfg.Mongo.Database)
		assert.Equal(t, time.Hour, cfg.Token.ExpiresIn)
		assert.Equal(t, "client-123", cfg.Google.ClientID)
	})

	t.Run("requires mongo uri", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		t.Setenv("TOKEN_SECRET", strings.Repeat("s", 32))

		_, err := Load()
		assert.ErrorContains(t, err, "MONGO_URI")
	})

	t.Run("rejects short token secret", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("TOKEN_SECRET", "short")

		_, err := Load()
		assert.ErrorContains(t, err, "TOKEN_SECRET")
	})
}
