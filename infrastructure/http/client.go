// Package http builds outbound HTTP clients with explicit connect and read
// timeouts for collaborator calls.
package http

import (
	"net"
	"net/http"
	"time"
)

const (
	DefaultConnectTimeout        = 1 * time.Second
	DefaultTimeout               = 5 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultExpectContinueTimeout = 1 * time.Second
)

// ClientConfig configures NewClient. Zero values take the defaults above.
type ClientConfig struct {
	// ConnectTimeout bounds dialing the TCP connection.
	ConnectTimeout time.Duration
	// Timeout bounds the whole request including reading the body.
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
}

// NewClient creates an HTTP client. A nil cfg uses defaults.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	dialer := &net.Dialer{
		Timeout:   orDefault(cfg.ConnectTimeout, DefaultConnectTimeout),
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          orDefault(cfg.MaxIdleConns, DefaultMaxIdleConns),
		MaxIdleConnsPerHost:   orDefault(cfg.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost),
		IdleConnTimeout:       orDefault(cfg.IdleConnTimeout, DefaultIdleConnTimeout),
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
		ExpectContinueTimeout: DefaultExpectContinueTimeout,
	}

	return &http.Client{
		Timeout:   orDefault(cfg.Timeout, DefaultTimeout),
		Transport: transport,
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
