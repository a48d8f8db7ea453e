package database

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConnectMongo_RequiresOptions(t *testing.T) {
	logger := zerolog.New(io.Discard)

	_, err := ConnectMongo(context.Background(), &logger, MongoOptions{Database: "storefront"})
	assert.ErrorContains(t, err, "uri")

	_, err = ConnectMongo(context.Background(), &logger, MongoOptions{URI: "mongodb://localhost:27017"})
	assert.ErrorContains(t, err, "database")
}
