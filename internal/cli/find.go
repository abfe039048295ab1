package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/dedup"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// FindFlags holds find command flags
type FindFlags struct {
	Inputs        []string
	Action        string
	Deprioritize  []string
	Exclude       []string
	Timestamp     string
	OutputDir     string
	Hash          string
	Parallel      int
	BufferSize    int
	MinSize       int64
	NoPartialHash bool
	ReadLimit     string
	Output        string
	Report        string
	ReportFormat  string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var findFlags FindFlags

// NewFindCommand creates the find command
func NewFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [folder...]",
		Short: "Find duplicate files and list, move or remove them",
		Long: `Find files with identical content across one or more folders.

For every set of duplicates one principal is kept. Folders matching a
--deprioritize pattern are avoided when choosing it; among equal folders the
earliest input folder wins, then the shortest file name. Every other member
is listed, moved to Duplicates/Duplicates_<timestamp>/ or removed, and a CSV
audit log is written next to it. Edit the Action column of that log and run
"dedupnorris revert" to undo or swap decisions.`,
		Example: `  dedupnorris find -i ~/Photos,~/Backup --deprioritize '*backup*'
  dedupnorris find ~/Photos ~/Old --action move --output-dir ~/dedup`,
		RunE: runFind,
	}

	cmd.Flags().StringSliceVarP(&findFlags.Inputs, "input", "i", nil, "input folders, in priority order (comma separated or repeated)")
	cmd.Flags().StringVarP(&findFlags.Action, "action", "a", "", "action on duplicates: list, move, remove (default: list)")
	cmd.Flags().StringArrayVarP(&findFlags.Deprioritize, "deprioritize", "d", nil, "folder glob to avoid as principal source, later patterns rank higher (repeatable)")
	cmd.Flags().StringArrayVar(&findFlags.Exclude, "exclude", nil, "glob patterns to exclude from the scan (repeatable)")
	cmd.Flags().StringVar(&findFlags.Timestamp, "timestamp", "", "run timestamp used in audit and quarantine names (default: now)")
	cmd.Flags().StringVar(&findFlags.OutputDir, "output-dir", "", "directory receiving Duplicates/ (default: first input folder)")
	cmd.Flags().StringVar(&findFlags.Hash, "hash", "", "hash algorithm: sha256, sha1, md5 (default: sha256)")
	cmd.Flags().IntVarP(&findFlags.Parallel, "parallel", "p", 0, "number of parallel hashing workers (default: 4)")
	cmd.Flags().IntVar(&findFlags.BufferSize, "buffer-size", 0, "read buffer size in bytes")
	cmd.Flags().Int64Var(&findFlags.MinSize, "min-size", 0, "ignore files smaller than this many bytes")
	cmd.Flags().BoolVar(&findFlags.NoPartialHash, "no-partial-hash", false, "always hash whole files, even large ones")
	cmd.Flags().StringVar(&findFlags.ReadLimit, "read-limit", "", "read rate limit (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringVarP(&findFlags.Output, "output", "o", "", "output format: human, progress, json")
	cmd.Flags().StringVar(&findFlags.Report, "report", "", "write duplicate sets report to file")
	cmd.Flags().StringVar(&findFlags.ReportFormat, "report-format", "human", "duplicate sets report format: human, json")

	// Logging flags
	cmd.Flags().StringVar(&findFlags.LogFile, "log-file", "", "write logs to file instead of stderr")
	cmd.Flags().StringVar(&findFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&findFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	folders := append(append([]string(nil), findFlags.Inputs...), args...)
	if len(folders) == 0 {
		return fmt.Errorf("at least one input folder is required (use --input or arguments)")
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	operation, err := createDedupOperation(cfg, folders)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}

	formatter, err := createFormatter(cfg)
	if err != nil {
		return err
	}
	if err := formatter.Start(outputWriter(cmd, cfg), operation); err != nil {
		return err
	}

	logger, err := createLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	backend := storage.NewLocal()
	defer backend.Close()

	engine := dedup.NewEngine(backend, formatter, logger, operation)
	report, err := engine.Run(ctx)
	if err != nil {
		if formatter.Name() == "json" {
			formatter.Error(err)
		}
		return &ExitError{Code: report.Status.ExitCode(), Err: err}
	}

	if err := formatter.Complete(report); err != nil {
		return err
	}

	if cfg.Output.Report != "" {
		if err := output.WriteDuplicatesReport(report, cfg.Output.Report, findFlags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write duplicates report: %w", err)
		}
	}

	if report.Status != models.StatusSuccess {
		return &ExitError{Code: report.Status.ExitCode()}
	}
	return nil
}
