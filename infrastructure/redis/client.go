// Package redis creates go-redis clients for the audit stream.
package redis

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	infracontext "github.com/jonesrussell/north-cloud/geotagger/infrastructure/context"
)

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string //nolint:gosec // connection config
	DB       int
}

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

// NewClient connects and pings. The client is closed again when the ping
// fails.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := infracontext.WithPingTimeout()
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
