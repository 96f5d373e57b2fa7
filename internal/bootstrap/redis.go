package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/geotagger/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/geotagger/internal/audit"
	"github.com/jonesrussell/north-cloud/geotagger/internal/config"
)

// SetupAuditPublisher creates the audit stream publisher if auditing is
// enabled. Returns nil if auditing is disabled or Redis is unavailable.
func SetupAuditPublisher(cfg *config.Config, observer audit.Observer, log logger.Logger) (*audit.Publisher, *redis.Client) {
	if !cfg.Audit.Enabled || !cfg.Redis.Enabled() {
		return nil, nil
	}

	client, err := infraredis.NewClient(infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, audit events disabled",
			logger.Error(err),
		)
		return nil, nil
	}

	log.Info("Audit publisher initialized",
		logger.String("redis_address", cfg.Redis.Address),
		logger.String("stream", cfg.Audit.Stream),
	)
	return audit.NewPublisher(client, cfg.Audit.Stream, cfg.Audit.MaxLen, observer, log), client
}
