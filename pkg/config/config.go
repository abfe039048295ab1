package config

import (
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/ratelimit"
)

// Config represents the application configuration
type Config struct {
	Dedup       DedupConfig       `yaml:"dedup"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	// Deprioritize lists folder globs in increasing priority; the last match wins
	Deprioritize []string `yaml:"deprioritize"`
	Exclude      []string `yaml:"exclude"`
}

// DedupConfig holds deduplication settings
type DedupConfig struct {
	Action    models.Action        `yaml:"action"`
	Hash      models.HashAlgorithm `yaml:"hash"`
	OutputDir string               `yaml:"output_dir"` // Parent of the Duplicates directory (empty = first input folder)
	MinSize   int64                `yaml:"min_size"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers  int    `yaml:"max_workers"`
	BufferSize  int    `yaml:"buffer_size"`
	PartialHash bool   `yaml:"partial_hash"`
	ReadLimit   string `yaml:"read_limit"` // e.g. "50M" per second, empty = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format"` // "human", "progress" or "json"
	Quiet  bool   `yaml:"quiet"`  // Suppress non-error output
	Report string `yaml:"report"` // Optional duplicates report file
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Dedup: DedupConfig{
			Action: models.ActionList,
			Hash:   models.HashSHA256,
		},
		Performance: PerformanceConfig{
			MaxWorkers:  4,
			BufferSize:  65536,
			PartialHash: true,
		},
		Output: OutputConfig{
			Format: "progress",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Format:     "text",
			Level:      "warn",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
		Exclude: []string{
			"*.tmp",
			".git/",
			"Thumbs.db",
			".DS_Store",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := models.ParseAction(string(c.Dedup.Action)); err != nil {
		return &models.ValidationError{
			Field:   "dedup.action",
			Message: "must be 'list', 'move' or 'remove'",
		}
	}

	switch c.Dedup.Hash {
	case models.HashSHA256, models.HashSHA1, models.HashMD5:
	default:
		return &models.ValidationError{
			Field:   "dedup.hash",
			Message: "must be 'sha256', 'sha1' or 'md5'",
		}
	}

	if c.Dedup.MinSize < 0 {
		return &models.ValidationError{
			Field:   "dedup.min_size",
			Message: "cannot be negative",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.ReadLimit != "" {
		if _, err := ratelimit.ParseRate(c.Performance.ReadLimit); err != nil {
			return &models.ValidationError{
				Field:   "performance.read_limit",
				Message: err.Error(),
			}
		}
	}

	validFormats := map[string]bool{"human": true, "progress": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'progress' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ReadLimitBytes returns the configured read limit in bytes per second
func (c *Config) ReadLimitBytes() int64 {
	if c.Performance.ReadLimit == "" {
		return 0
	}
	rate, err := ratelimit.ParseRate(c.Performance.ReadLimit)
	if err != nil {
		return 0
	}
	return rate
}
