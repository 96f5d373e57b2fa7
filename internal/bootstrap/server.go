package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/circuitbreaker"
	infracontext "github.com/jonesrussell/north-cloud/geotagger/infrastructure/context"
	infragin "github.com/jonesrussell/north-cloud/geotagger/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/metrics"
	"github.com/jonesrussell/north-cloud/geotagger/internal/api"
	"github.com/jonesrussell/north-cloud/geotagger/internal/config"
)

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(cfg *config.Config, p *Pipeline, log logger.Logger) *infragin.Server {
	handler := api.NewHandler(p.Tagger, p.Batch, p.Tables.SameName, cfg.Batch.MaxEvents, log)
	httpMetrics := metrics.NewHTTPMetrics(p.Registry, cfg.Service.Name)

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Server.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, 0).
		WithMiddleware(httpMetrics.Middleware()).
		WithHealthCheck("geocoding", geocodingHealth(p)).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, handler, cfg.Auth.JWTSecret, metrics.Handler(p.Registry))
		})

	if ping := p.PingDatabase(); ping != nil {
		builder = builder.WithDatabaseHealthCheck(ping)
	}
	if ping := p.PingRedis(); ping != nil {
		builder = builder.WithRedisHealthCheck(ping)
	}
	if p.Sidecar != nil {
		builder = builder.WithHealthCheck("classifier", classifierHealth(p))
	}

	return builder.Build()
}

// geocodingHealth is degraded while the breaker is open.
func geocodingHealth(p *Pipeline) infragin.HealthChecker {
	return func() infragin.CheckResult {
		state := p.Geocoder.BreakerState()
		if state == circuitbreaker.StateOpen {
			return infragin.CheckResult{Status: infragin.HealthStatusDegraded, Message: "Geocoding circuit open"}
		}
		return infragin.CheckResult{Status: infragin.HealthStatusHealthy, Message: "Geocoding circuit " + state.String()}
	}
}

// classifierHealth is degraded when the model server does not answer.
func classifierHealth(p *Pipeline) infragin.HealthChecker {
	return func() infragin.CheckResult {
		ctx, cancel := infracontext.WithPingTimeout()
		defer cancel()

		version, err := p.Sidecar.Health(ctx)
		if err != nil {
			return infragin.CheckResult{Status: infragin.HealthStatusDegraded, Message: "Classifier unavailable"}
		}
		return infragin.CheckResult{Status: infragin.HealthStatusHealthy, Message: "Classifier model " + version}
	}
}
