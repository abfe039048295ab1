// Package revert replays reversal directives from an edited audit log
package revert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/audit"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Executor applies the directives found in an audit log
type Executor struct {
	backend storage.Backend
	logger  logging.Logger
}

// NewExecutor creates a reversal executor
func NewExecutor(backend storage.Backend, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Executor{backend: backend, logger: logger}
}

// Run reads the audit log at path and performs each row's directive.
// Rows without a known directive are skipped. A row whose file is missing is
// logged and counted as failed, so replaying a processed log is harmless.
func (e *Executor) Run(ctx context.Context, path string) (*models.RevertReport, error) {
	report := &models.RevertReport{
		AuditPath: path,
		StartTime: time.Now(),
	}

	records, err := audit.Read(ctx, e.backend, path)
	if err != nil {
		report.Status = models.StatusFailed
		return report, err
	}

	e.logger.Info(ctx, "Replaying audit log", logging.Fields{"path": path, "rows": len(records)})

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			report.Status = models.StatusCancelled
			report.Duration = time.Since(report.StartTime)
			return report, err
		}

		directive, ok := models.ParseReversal(rec.Action)
		if !ok {
			report.Skipped++
			continue
		}

		if err := e.apply(ctx, directive, rec); err != nil {
			e.logger.Warn(ctx, "Reversal failed", logging.Fields{
				"directive": string(directive),
				"duplicate": rec.Duplicate,
				"error":     err.Error(),
			})
			report.Failed++
			report.Errors = append(report.Errors, models.FileError{
				FilePath:  rec.Duplicate,
				Operation: string(directive),
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			continue
		}

		switch directive {
		case models.ReversalRemove:
			report.Removed++
		case models.ReversalRestore:
			report.Restored++
		case models.ReversalReplace:
			report.Replaced++
		}
	}

	report.Duration = time.Since(report.StartTime)
	if report.Failed > 0 {
		report.Status = models.StatusPartial
	} else {
		report.Status = models.StatusSuccess
	}

	e.logger.Info(ctx, "Audit log replayed", logging.Fields{
		"removed":  report.Removed,
		"restored": report.Restored,
		"replaced": report.Replaced,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})

	return report, nil
}

func (e *Executor) apply(ctx context.Context, directive models.Reversal, rec audit.Record) error {
	switch directive {
	case models.ReversalRemove:
		target := rec.Duplicate
		if rec.Destination != "" {
			target = rec.Destination
		}
		if err := e.requireFile(ctx, target); err != nil {
			return err
		}
		return e.backend.Remove(ctx, target)

	case models.ReversalRestore:
		// Rows of list runs have no destination: the duplicate never moved
		if rec.Destination == "" {
			return e.requireFile(ctx, rec.Duplicate)
		}
		if err := e.requireFile(ctx, rec.Destination); err != nil {
			return err
		}
		return e.backend.Move(ctx, rec.Destination, rec.Duplicate, false)

	case models.ReversalReplace:
		if rec.Destination == "" {
			if err := e.requireFile(ctx, rec.Duplicate); err != nil {
				return err
			}
		} else {
			if err := e.requireFile(ctx, rec.Destination); err != nil {
				return err
			}
			if err := e.backend.Move(ctx, rec.Destination, rec.Duplicate, true); err != nil {
				return err
			}
		}
		return e.removePrincipal(ctx, rec)
	}
	return nil
}

// removePrincipal deletes the principal of a replaced row. Several rows of
// one set share a principal, so it may already be gone.
func (e *Executor) removePrincipal(ctx context.Context, rec audit.Record) error {
	if rec.Principal == "" || rec.Principal == rec.Duplicate {
		return nil
	}
	err := e.backend.Remove(ctx, rec.Principal)
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Debug(ctx, "Principal already removed", logging.Fields{"principal": rec.Principal})
		return nil
	}
	if err != nil {
		return fmt.Errorf("restored duplicate but failed to remove principal: %w", err)
	}
	return nil
}

func (e *Executor) requireFile(ctx context.Context, path string) error {
	exists, err := e.backend.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return nil
}
