// Package context holds the timeout helpers used around startup and
// health-check I/O.
package context

import (
	"context"
	"time"
)

const (
	// DefaultPingTimeout bounds database and Redis pings.
	DefaultPingTimeout = 5 * time.Second
	// DefaultStartupTimeout bounds loading reference data at startup.
	DefaultStartupTimeout = 60 * time.Second
)

// WithPingTimeout returns a background context bounded by DefaultPingTimeout.
func WithPingTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultPingTimeout)
}

// WithStartupTimeout returns a background context bounded by
// DefaultStartupTimeout.
func WithStartupTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultStartupTimeout)
}
