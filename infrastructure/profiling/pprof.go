// Package profiling serves the runtime profiler on a loopback port.
package profiling

import (
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
)

const readHeaderTimeout = 5 * time.Second

// Config controls the pprof server.
type Config struct {
	Enabled bool `env:"ENABLE_PROFILING" yaml:"enabled"`
	Port    int  `env:"PPROF_PORT"       yaml:"port"`
}

// DefaultPort is used when Port is unset.
const DefaultPort = 6060

// Handler returns a mux with the standard /debug/pprof endpoints.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartPprofServer serves Handler on localhost in the background when
// enabled. It returns nil when profiling is off.
func StartPprofServer(cfg Config, log logger.Logger) *http.Server {
	if !cfg.Enabled {
		return nil
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("localhost", strconv.Itoa(port)),
		Handler:           Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
	return srv
}
