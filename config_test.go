package sparsecs

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(DefaultMaxEntities), cfg.MaxEntities)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max entities", func(c *Config) { c.MaxEntities = 0 }},
		{"max entities beyond int32", func(c *Config) { c.MaxEntities = 1 << 31 }},
		{"negative capacity", func(c *Config) { c.InitialCapacity = -1 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidConfig))
		})
	}
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("max_entities: 64\n"))
	require.NoError(t, err)
	assert.Equal(t, uint32(64), cfg.MaxEntities)
	assert.Equal(t, DefaultConfig().InitialCapacity, cfg.InitialCapacity)
	assert.Equal(t, "info", cfg.LogLevel)

	_, err = ParseConfig([]byte("max_entities: [nope]"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("max_entities: 0"))
	assert.True(t, eris.Is(err, ErrInvalidConfig))
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "world.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{MaxEntities: 5000, InitialCapacity: 256, LogLevel: "debug"}, cfg)

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	w := NewWorld(WithConfig(cfg), WithLogger(logger))
	assert.Equal(t, uint32(5000), w.entities.MaxEntities())

	_, err = LoadConfig(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
