// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	// DataDir is the default directory searched for log files when a
	// relative path is given to ingest.
	DataDir string `yaml:"data_dir"`

	// ConfigCSV is the path of the shipped per-column default settings
	// file (CONFIG.CSV). Applied to columns still at factory defaults.
	ConfigCSV string `yaml:"config_csv"`

	// PresetsCSV is the path of the graph preset list (PRESETS.CSV).
	PresetsCSV string `yaml:"presets_csv"`

	// Snapshot configures graph snapshot files.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// SnapshotConfig configures graph snapshot files.
type SnapshotConfig struct {
	// Compression is the Parquet compression algorithm:
	// snappy, zstd, lz4, gzip, none.
	Compression string `yaml:"compression"`

	// CompressionLevel for algorithms that support it (zstd: 1-22).
	CompressionLevel int `yaml:"compression_level"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output to JSON lines.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    ".",
		ConfigCSV:  "CONFIG.CSV",
		PresetsCSV: "PRESETS.CSV",
		Snapshot: SnapshotConfig{
			Compression:      "zstd",
			CompressionLevel: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file. Missing file is the caller's decision
// to handle (os.IsNotExist); defaults fill any omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.Snapshot.Compression {
	case "", "none", "snappy", "zstd", "lz4", "gzip":
	default:
		return fmt.Errorf("unknown snapshot compression %q", c.Snapshot.Compression)
	}
	if c.Snapshot.CompressionLevel < 0 || c.Snapshot.CompressionLevel > 22 {
		return fmt.Errorf("snapshot compression_level %d out of range", c.Snapshot.CompressionLevel)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// ResolvePath resolves a possibly relative path against DataDir.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}
