package logger

// Config configures the zap backend.
type Config struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is kept for config compatibility; output is always JSON.
	Format      string   `env:"LOG_FORMAT" yaml:"format"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

const (
	// DefaultLevel is used when Level is empty.
	DefaultLevel = "info"
	// DefaultFormat is used when Format is empty.
	DefaultFormat = "json"
)

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
