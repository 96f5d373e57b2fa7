package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/circuitbreaker"
	infracontext "github.com/jonesrussell/north-cloud/geotagger/infrastructure/context"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/audit"
	"github.com/jonesrussell/north-cloud/geotagger/internal/classification"
	"github.com/jonesrussell/north-cloud/geotagger/internal/config"
	"github.com/jonesrussell/north-cloud/geotagger/internal/disambiguation"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/features"
	"github.com/jonesrussell/north-cloud/geotagger/internal/geocoding"
	"github.com/jonesrussell/north-cloud/geotagger/internal/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/processor"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
	"github.com/jonesrussell/north-cloud/geotagger/internal/retrieval"
	"github.com/jonesrussell/north-cloud/geotagger/internal/tagger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/telemetry"
)

// Pipeline is the fully wired tagging stack shared by the server and the CLI.
type Pipeline struct {
	Tables    *reftables.Tables
	Tagger    *tagger.Tagger
	Batch     *processor.BatchProcessor
	Geocoder  *geocoding.Client
	Registry  *prometheus.Registry
	Telemetry *telemetry.Provider
	Audit     *audit.Publisher

	// Sidecar is set when the classifier runs as a model server.
	Sidecar *classification.SidecarClient

	master *LocationMaster
	redis  *redis.Client
	log    logger.Logger
}

// NewPipeline wires every stage from configuration.
func NewPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	p := &Pipeline{Registry: prometheus.NewRegistry(), log: log}
	p.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p.Telemetry = telemetry.NewProvider(p.Registry)

	master, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	p.master = master

	p.Tables, err = loadTables(cfg, master)
	if err != nil {
		p.Close()
		return nil, err
	}

	classifier, err := p.setupClassifier(cfg)
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Audit, p.redis = SetupAuditPublisher(cfg, p.Telemetry, log)
	p.Geocoder = geocoding.NewClient(geocodingConfig(cfg, log), p.Telemetry, log)

	var (
		rules     []domain.LocationFeature
		localPubs retrieval.LocalPublisherStore
	)
	if master != nil {
		rules = master.rules
		localPubs = master.repo
	}

	t := p.Tables
	p.Tagger = tagger.New(tagger.Deps{
		URL:       retrieval.NewURLExtractor(t.USStates),
		Publisher: retrieval.NewPublisherExtractor(t.Publishers),
		Text:      retrieval.NewTextExtractor(t.USStates),
		Entities: retrieval.NewEntityExtractor(p.Geocoder, t.Keywords, rules, localPubs, retrieval.EntityConfig{
			MaxKeywordLookups:        cfg.Retrieval.MaxKeywordLookups,
			LocalPublisherCandidates: cfg.Retrieval.LocalPublisherCandidates && localPubs != nil,
		}, log),
		Disambiguator: disambiguation.New(t.USStates, p.Telemetry, log),
		Builder:       features.NewBuilder(placeline.NewDetector(t.StateCodes, t.Ambiguity), t.USStates, log),
		Gate:          classification.NewGate(classifier, cfg.Tagging.MinProbability, p.Telemetry, log),
		SameName:      t.SameName,
		Audit:         p.Audit,
		Telemetry:     p.Telemetry,
	}, tagger.Config{CapabilityTag: cfg.Tagging.CapabilityTag}, log)

	p.Batch = processor.NewBatchProcessor(p.Tagger, cfg.Batch.Workers, log)

	log.Info("Tagging pipeline ready",
		logger.String("classifier", cfg.Classifier.Backend),
		logger.Bool("audit", p.Audit != nil),
		logger.Bool("location_master", master != nil),
		logger.Int("feature_rules", len(rules)),
	)
	return p, nil
}

// Close waits for pending audit events and releases connections.
func (p *Pipeline) Close() {
	p.Audit.Wait()

	var errs []error
	if p.redis != nil {
		errs = append(errs, p.redis.Close())
	}
	if p.master != nil {
		errs = append(errs, p.master.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		p.log.Error("Failed to close connections", logger.Error(err))
	}
}

// PingDatabase reports whether the location master is reachable. It is nil
// when no database is configured.
func (p *Pipeline) PingDatabase() func() error {
	if p.master == nil {
		return nil
	}
	return func() error {
		ctx, cancel := infracontext.WithPingTimeout()
		defer cancel()
		return p.master.repo.Ping(ctx)
	}
}

// PingRedis reports whether the audit stream is reachable. It is nil when
// auditing is off.
func (p *Pipeline) PingRedis() func() error {
	if p.redis == nil {
		return nil
	}
	return func() error {
		ctx, cancel := infracontext.WithPingTimeout()
		defer cancel()
		return p.redis.Ping(ctx).Err()
	}
}

func (p *Pipeline) setupClassifier(cfg *config.Config) (classification.Classifier, error) {
	switch cfg.Classifier.Backend {
	case config.ClassifierLinear:
		model, err := classification.LoadLinearModel(cfg.Classifier.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("load classifier model: %w", err)
		}
		p.log.Info("Loaded linear classifier",
			logger.String("path", cfg.Classifier.ModelPath),
			logger.String("model_version", model.Version),
			logger.Int("features", len(model.Features)),
		)
		return model, nil
	default:
		p.Sidecar = classification.NewSidecarClient(cfg.Classifier.URL, cfg.Classifier.ConnectTimeout, cfg.Classifier.ReadTimeout)
		return p.Sidecar, nil
	}
}

func loadTables(cfg *config.Config, master *LocationMaster) (*reftables.Tables, error) {
	var extra []reftables.PublisherRow
	if master != nil {
		extra = master.publishers
	}

	ref := cfg.Reference
	tables, err := reftables.Load(reftables.Paths{
		StateCodes:         ref.StateCodes,
		USStates:           ref.USStates,
		NameAmbiguity:      ref.NameAmbiguity,
		PublisherLocations: ref.PublisherLocations,
		SameNameLocations:  ref.SameNameLocations,
		WikiEntities:       ref.WikiEntities,
	}, extra...)
	if err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}
	return tables, nil
}

func geocodingConfig(cfg *config.Config, log logger.Logger) geocoding.Config {
	g := cfg.Geocoding
	return geocoding.Config{
		BaseURL:           g.BaseURL,
		WikipediaPath:     g.WikipediaPath,
		LocationIDPath:    g.LocationIDPath,
		KeywordPath:       g.KeywordPath,
		KeywordBulkPath:   g.KeywordBulkPath,
		ConnectTimeout:    g.ConnectTimeout,
		ReadTimeout:       g.ReadTimeout,
		CacheTTL:          g.CacheTTL,
		RequestsPerSecond: g.RequestsPerSecond,
		Burst:             g.Burst,
		Breaker: circuitbreaker.Config{
			FailureThreshold: g.BreakerFailures,
			SuccessThreshold: g.BreakerSuccesses,
			Timeout:          g.BreakerTimeout,
			OnStateChange: func(from, to circuitbreaker.State) {
				log.Warn("Geocoding circuit breaker state changed",
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			},
		},
	}
}
