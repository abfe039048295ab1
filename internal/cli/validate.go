package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/config"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with the find flags the user set
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("action") {
		cfg.Dedup.Action = models.Action(findFlags.Action)
	}
	if flags.Changed("hash") {
		cfg.Dedup.Hash = models.HashAlgorithm(findFlags.Hash)
	}
	if flags.Changed("output-dir") {
		cfg.Dedup.OutputDir = findFlags.OutputDir
	}
	if flags.Changed("min-size") {
		cfg.Dedup.MinSize = findFlags.MinSize
	}

	// Parallel workers (default: 4)
	if findFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = findFlags.Parallel
	} else if cfg.Performance.MaxWorkers == 0 {
		cfg.Performance.MaxWorkers = 4
	}
	if findFlags.BufferSize > 0 {
		cfg.Performance.BufferSize = findFlags.BufferSize
	}
	if findFlags.NoPartialHash {
		cfg.Performance.PartialHash = false
	}
	if flags.Changed("read-limit") {
		cfg.Performance.ReadLimit = findFlags.ReadLimit
	}

	// Command-line patterns replace the configured lists
	if len(findFlags.Deprioritize) > 0 {
		cfg.Deprioritize = findFlags.Deprioritize
	}
	if len(findFlags.Exclude) > 0 {
		cfg.Exclude = findFlags.Exclude
	}

	if findFlags.Output != "" {
		cfg.Output.Format = findFlags.Output
	}
	if findFlags.Report != "" {
		cfg.Output.Report = findFlags.Report
	}

	applyLoggingFlags(cmd, cfg, findFlags.LogFile, findFlags.LogFormat, findFlags.LogLevel)
	applyGlobalFlags(cfg)
}

// applyLoggingFlags overrides the logging section from command-line flags
func applyLoggingFlags(cmd *cobra.Command, cfg *config.Config, file, format, level string) {
	flags := cmd.Flags()
	if flags.Changed("log-file") {
		cfg.Logging.File = file
		cfg.Logging.Enabled = true
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = format
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = level
	}
}

// applyGlobalFlags applies --quiet and --verbose
func applyGlobalFlags(cfg *config.Config) {
	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose && logging.ParseLevel(cfg.Logging.Level) > logging.InfoLevel {
		cfg.Logging.Level = "info"
	}
}

// createDedupOperation creates a dedup operation from configuration
func createDedupOperation(cfg *config.Config, folders []string) (*models.DedupOperation, error) {
	now := time.Now()

	timestamp := findFlags.Timestamp
	if timestamp == "" {
		timestamp = models.NewTimestamp(now)
	}
	if filepath.Base(timestamp) != timestamp {
		return nil, &models.ValidationError{Field: "Timestamp", Message: "timestamp cannot contain path separators"}
	}

	operation := &models.DedupOperation{
		ID:                   uuid.New().String(),
		Folders:              folders,
		Action:               cfg.Dedup.Action,
		DeprioritizePatterns: cfg.Deprioritize,
		ExcludePatterns:      cfg.Exclude,
		Timestamp:            timestamp,
		OutputDir:            cfg.Dedup.OutputDir,
		HashAlgorithm:        cfg.Dedup.Hash,
		MaxWorkers:           cfg.Performance.MaxWorkers,
		BufferSize:           cfg.Performance.BufferSize,
		PartialHash:          cfg.Performance.PartialHash,
		MinSize:              cfg.Dedup.MinSize,
		ReadLimit:            cfg.ReadLimitBytes(),
		CreatedAt:            now,
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}

// createFormatter returns the configured output formatter
func createFormatter(cfg *config.Config) (output.Formatter, error) {
	return output.New(cfg.Output.Format)
}

// outputWriter is where the formatter writes; quiet mode keeps only JSON documents
func outputWriter(cmd *cobra.Command, cfg *config.Config) io.Writer {
	if cfg.Output.Quiet && cfg.Output.Format != "json" {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

// createLogger creates a logger based on configuration.
// Logs go to the configured file, otherwise to stderr.
func createLogger(cmd *cobra.Command, cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	format := logging.Format(cfg.Logging.Format)

	if cfg.Logging.File != "" {
		return logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       cfg.Logging.File,
			Format:     format,
			Level:      level,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
		})
	}

	if cfg.Output.Quiet {
		level = logging.ErrorLevel
	}
	return logging.NewStreamLogger(cmd.ErrOrStderr(), format, level), nil
}

// ExitCode returns the process exit code for an error returned by a command
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return models.StatusFailed.ExitCode()
}

// ReportError prints err unless its outcome was already shown to the user
func ReportError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
