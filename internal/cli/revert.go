package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/revert"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// RevertFlags holds revert command flags
type RevertFlags struct {
	Output    string
	LogFile   string
	LogFormat string
	LogLevel  string
}

var revertFlags RevertFlags

// NewRevertCommand creates the revert command
func NewRevertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <audit.csv>",
		Short: "Apply the reversal directives written in an audit log",
		Long: `Replay an audit log produced by "dedupnorris find" after editing its Action column.

Recognised directives:
  remove_duplicate    delete the duplicate (from quarantine when it was moved)
  restore_duplicate   move a quarantined duplicate back to its original path
  replace_duplicate   restore the duplicate over its original path and delete the principal

Any other value leaves the row untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runRevert,
	}

	cmd.Flags().StringVarP(&revertFlags.Output, "output", "o", "", "output format: human, progress, json")
	cmd.Flags().StringVar(&revertFlags.LogFile, "log-file", "", "write logs to file instead of stderr")
	cmd.Flags().StringVar(&revertFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&revertFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runRevert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if revertFlags.Output != "" {
		cfg.Output.Format = revertFlags.Output
	}
	applyLoggingFlags(cmd, cfg, revertFlags.LogFile, revertFlags.LogFormat, revertFlags.LogLevel)
	applyGlobalFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	formatter, err := createFormatter(cfg)
	if err != nil {
		return err
	}
	if err := formatter.Start(outputWriter(cmd, cfg), nil); err != nil {
		return err
	}

	logger, err := createLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	backend := storage.NewLocal()
	defer backend.Close()

	executor := revert.NewExecutor(backend, logger)
	report, err := executor.Run(ctx, args[0])
	if err != nil {
		if formatter.Name() == "json" {
			formatter.Error(err)
		}
		return &ExitError{Code: report.Status.ExitCode(), Err: err}
	}

	if err := formatter.CompleteRevert(report); err != nil {
		return err
	}

	if report.Status != models.StatusSuccess {
		return &ExitError{Code: report.Status.ExitCode()}
	}
	return nil
}
