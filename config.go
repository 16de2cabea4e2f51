package sparsecs

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the fixed-capacity settings of a World.
type Config struct {
	// MaxEntities bounds the number of entity slots and the largest entity
	// index (exclusive) a component can be inserted for.
	MaxEntities uint32 `yaml:"max_entities"`
	// InitialCapacity is the number of entity slots preallocated up front.
	InitialCapacity int `yaml:"initial_capacity"`
	// LogLevel is the level used by NewLogger: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used by NewWorld when none is
// given.
func DefaultConfig() Config {
	return Config{
		MaxEntities:     DefaultMaxEntities,
		InitialCapacity: 1024,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for values the World cannot run with.
func (c Config) Validate() error {
	if c.MaxEntities == 0 {
		return eris.Wrap(ErrInvalidConfig, "max_entities must be positive")
	}
	if c.MaxEntities > math.MaxInt32 {
		return eris.Wrapf(ErrInvalidConfig, "max_entities %d exceeds %d", c.MaxEntities, math.MaxInt32)
	}
	if c.InitialCapacity < 0 {
		return eris.Wrapf(ErrInvalidConfig, "initial_capacity %d is negative", c.InitialCapacity)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(ErrInvalidConfig, "log_level %q: %v", c.LogLevel, err)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig, so omitted keys keep their
// defaults, and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "failed to read config %s", path)
	}
	return ParseConfig(data)
}

// NewLogger builds a JSON logger writing to stderr at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidConfig, "log_level %q: %v", c.LogLevel, err)
	}
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	logger, err := config.Build()
	if err != nil {
		return nil, eris.Wrap(err, "failed to build logger")
	}
	return logger, nil
}

// Option configures a World.
type Option func(*World)

// WithConfig replaces the World's configuration.
func WithConfig(cfg Config) Option {
	return func(w *World) {
		w.cfg = cfg
	}
}

// WithMaxEntities sets Config.MaxEntities.
func WithMaxEntities(n uint32) Option {
	return func(w *World) {
		w.cfg.MaxEntities = n
	}
}

// WithInitialCapacity sets Config.InitialCapacity.
func WithInitialCapacity(n int) Option {
	return func(w *World) {
		w.cfg.InitialCapacity = n
	}
}

// WithLogger sets the logger used by the World and its storage.
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.log = logger
	}
}
