// Package config holds the geotagger service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/geotagger/infrastructure/config"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/profiling"
)

// Default configuration values.
const (
	defaultServiceName      = "geotagger"
	defaultServiceVersion   = "1.0.0"
	defaultServicePort      = 8901
	defaultReadTimeout      = 30 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultGeocodingConnect = 1 * time.Second
	defaultGeocodingRead    = 5 * time.Second
	defaultGeocodingTTL     = time.Hour
	defaultBreakerFailures  = 5
	defaultBreakerSuccesses = 2
	defaultBreakerTimeout   = 30 * time.Second
	defaultClassifierRead   = 3 * time.Second
	defaultMinProbability   = 0.1
	defaultCapabilityTag    = "us_location_tagging_ver_7.1"
	defaultAuditMaxLen      = 100000
	defaultBatchWorkers     = 4
	defaultBatchMaxEvents   = 100
	defaultWikipediaPath    = "/v1/locations/wikipedia"
	defaultLocationIDPath   = "/v1/locations/id"
	defaultKeywordPath      = "/v1/locations/keyword"
	defaultKeywordBulkPath  = "/v1/locations/keyword/bulk"
)

// Classifier backends.
const (
	ClassifierSidecar = "sidecar"
	ClassifierLinear  = "linear"
)

var errNoClassifierModel = errors.New("classifier.model_path is required for the linear classifier")

// Config holds all configuration for the geotagger service.
type Config struct {
	Service    ServiceConfig              `yaml:"service"`
	Server     ServerConfig               `yaml:"server"`
	Auth       AuthConfig                 `yaml:"auth"`
	Database   infraconfig.DatabaseConfig `yaml:"database"`
	Redis      infraconfig.RedisConfig    `yaml:"redis"`
	Geocoding  GeocodingConfig            `yaml:"geocoding"`
	Classifier ClassifierConfig           `yaml:"classifier"`
	Reference  ReferenceConfig            `yaml:"reference"`
	Retrieval  RetrievalConfig            `yaml:"retrieval"`
	Tagging    TaggingConfig              `yaml:"tagging"`
	Audit      AuditConfig                `yaml:"audit"`
	Batch      BatchConfig                `yaml:"batch"`
	Logging    infraconfig.LoggingConfig  `yaml:"logging"`
	Profiling  profiling.Config           `yaml:"profiling"`
}

// ServiceConfig holds service identity.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `env:"GEOTAGGER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS"   yaml:"cors_origins"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"` //nolint:gosec // config field
}

// GeocodingConfig configures the geocoding collaborator.
type GeocodingConfig struct {
	BaseURL           string        `env:"GEOCODING_BASE_URL"      yaml:"base_url"`
	WikipediaPath     string        `yaml:"wikipedia_path"`
	LocationIDPath    string        `yaml:"location_id_path"`
	KeywordPath       string        `yaml:"keyword_path"`
	KeywordBulkPath   string        `yaml:"keyword_bulk_path"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReadTimeout       time.Duration `env:"GEOCODING_READ_TIMEOUT"  yaml:"read_timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	RequestsPerSecond float64       `env:"GEOCODING_RPS"           yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerFailures   int           `yaml:"breaker_failures"`
	BreakerSuccesses  int           `yaml:"breaker_successes"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
}

// ClassifierConfig selects and configures the location classifier.
type ClassifierConfig struct {
	Backend        string        `env:"CLASSIFIER_BACKEND" yaml:"backend"`
	URL            string        `env:"CLASSIFIER_URL"     yaml:"url"`
	ModelPath      string        `env:"CLASSIFIER_MODEL"   yaml:"model_path"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// ReferenceConfig points at reference tables. Empty paths use the embedded
// defaults.
type ReferenceConfig struct {
	StateCodes         string `yaml:"state_codes"`
	USStates           string `yaml:"us_states"`
	NameAmbiguity      string `yaml:"name_ambiguity"`
	PublisherLocations string `yaml:"publisher_locations"`
	SameNameLocations  string `yaml:"same_name_locations"`
	WikiEntities       string `yaml:"wiki_entities"`
	// PublishersFromDB adds publisher rows from the database.
	PublishersFromDB bool `yaml:"publishers_from_db"`
}

// RetrievalConfig tunes candidate generation.
type RetrievalConfig struct {
	LocalPublisherCandidates bool `env:"LOCAL_PUBLISHER_CANDIDATES" yaml:"local_publisher_candidates"`
	MaxKeywordLookups        int  `yaml:"max_keyword_lookups"`
}

// TaggingConfig tunes the final selection.
type TaggingConfig struct {
	MinProbability float64 `yaml:"min_probability"`
	CapabilityTag  string  `yaml:"capability_tag"`
}

// AuditConfig configures the Redis audit stream.
type AuditConfig struct {
	Enabled bool   `env:"AUDIT_ENABLED" yaml:"enabled"`
	Stream  string `yaml:"stream"`
	MaxLen  int64  `yaml:"max_len"`
}

// BatchConfig configures batch tagging.
type BatchConfig struct {
	Workers   int `env:"BATCH_WORKERS" yaml:"workers"`
	MaxEvents int `yaml:"max_events"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, SetDefaults)
}

// FromEnv builds a configuration from defaults and the environment.
func FromEnv() *Config {
	return infraconfig.FromEnv[Config](SetDefaults)
}

// SetDefaults applies default values to unset fields.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setServerDefaults(&cfg.Server)
	cfg.Database.SetDefaults()
	setGeocodingDefaults(&cfg.Geocoding)
	setClassifierDefaults(&cfg.Classifier)
	setTaggingDefaults(&cfg.Tagging)
	setAuditDefaults(&cfg.Audit)
	setBatchDefaults(&cfg.Batch)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
}

func setGeocodingDefaults(g *GeocodingConfig) {
	if g.WikipediaPath == "" {
		g.WikipediaPath = defaultWikipediaPath
	}
	if g.LocationIDPath == "" {
		g.LocationIDPath = defaultLocationIDPath
	}
	if g.KeywordPath == "" {
		g.KeywordPath = defaultKeywordPath
	}
	if g.KeywordBulkPath == "" {
		g.KeywordBulkPath = defaultKeywordBulkPath
	}
	if g.ConnectTimeout == 0 {
		g.ConnectTimeout = defaultGeocodingConnect
	}
	if g.ReadTimeout == 0 {
		g.ReadTimeout = defaultGeocodingRead
	}
	if g.CacheTTL == 0 {
		g.CacheTTL = defaultGeocodingTTL
	}
	if g.BreakerFailures == 0 {
		g.BreakerFailures = defaultBreakerFailures
	}
	if g.BreakerSuccesses == 0 {
		g.BreakerSuccesses = defaultBreakerSuccesses
	}
	if g.BreakerTimeout == 0 {
		g.BreakerTimeout = defaultBreakerTimeout
	}
}

func setClassifierDefaults(c *ClassifierConfig) {
	if c.Backend == "" {
		c.Backend = ClassifierSidecar
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultGeocodingConnect
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultClassifierRead
	}
}

func setTaggingDefaults(t *TaggingConfig) {
	if t.MinProbability == 0 {
		t.MinProbability = defaultMinProbability
	}
	if t.CapabilityTag == "" {
		t.CapabilityTag = defaultCapabilityTag
	}
}

func setAuditDefaults(a *AuditConfig) {
	if a.MaxLen == 0 {
		a.MaxLen = defaultAuditMaxLen
	}
}

func setBatchDefaults(b *BatchConfig) {
	if b.Workers == 0 {
		b.Workers = defaultBatchWorkers
	}
	if b.MaxEvents == 0 {
		b.MaxEvents = defaultBatchMaxEvents
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("geocoding.base_url", c.Geocoding.BaseURL); err != nil {
		return err
	}
	if err := infraconfig.ValidateRange("tagging.min_probability", c.Tagging.MinProbability, 0, 1); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Classifier.Backend {
	case ClassifierSidecar:
		if err := infraconfig.ValidateRequired("classifier.url", c.Classifier.URL); err != nil {
			return err
		}
	case ClassifierLinear:
		if c.Classifier.ModelPath == "" {
			return errNoClassifierModel
		}
	default:
		return fmt.Errorf("classifier.backend: unknown backend %q", c.Classifier.Backend)
	}

	if c.Audit.Enabled && !c.Redis.Enabled() {
		return &infraconfig.ValidationError{Field: "redis.address", Message: "is required when audit is enabled"}
	}
	if c.Reference.PublishersFromDB && !c.Database.Enabled() {
		return &infraconfig.ValidationError{Field: "database.host", Message: "is required for publishers_from_db"}
	}
	return nil
}
