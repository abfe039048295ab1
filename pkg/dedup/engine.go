// Package dedup runs a complete deduplication: resolve folders, index sizes,
// hash collisions, choose principals, apply the action, write the audit log
// and remove directories the action emptied.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/action"
	"github.com/sdejongh/dedupnorris/pkg/audit"
	"github.com/sdejongh/dedupnorris/pkg/folders"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
	"github.com/sdejongh/dedupnorris/pkg/principal"
	"github.com/sdejongh/dedupnorris/pkg/ratelimit"
	"github.com/sdejongh/dedupnorris/pkg/scan"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Engine orchestrates a deduplication run
type Engine struct {
	backend   storage.Backend
	formatter output.Formatter
	logger    logging.Logger
	operation *models.DedupOperation
}

// NewEngine creates a new deduplication engine.
// formatter and logger may be nil.
func NewEngine(
	backend storage.Backend,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.DedupOperation,
) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		backend:   backend,
		formatter: formatter,
		logger:    logger.WithFields(logging.Fields{"run_id": operation.ID}),
		operation: operation,
	}
}

// Run executes the operation. Fatal problems (invalid operation, missing
// folder, unwritable audit log) return an error with a failed report.
// Cancellation returns the context error with a cancelled report.
func (e *Engine) Run(ctx context.Context) (*models.DedupReport, error) {
	op := e.operation
	report := &models.DedupReport{
		OperationID: op.ID,
		Action:      op.Action,
		Timestamp:   op.Timestamp,
		StartTime:   time.Now(),
		Status:      models.StatusSuccess,
	}

	fail := func(err error) (*models.DedupReport, error) {
		report.EndTime = time.Now()
		report.Duration = report.EndTime.Sub(report.StartTime)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = models.StatusCancelled
		} else {
			report.Status = models.StatusFailed
		}
		e.logger.Error(ctx, "Deduplication aborted", err, nil)
		return report, err
	}

	if err := op.Validate(); err != nil {
		return fail(err)
	}

	// Phase 1: resolve input folders
	inputs, err := folders.Resolve(ctx, e.backend, op.Folders)
	if err != nil {
		return fail(err)
	}
	report.Folders = inputs

	classifier, err := principal.NewClassifier(op.DeprioritizePatterns)
	if err != nil {
		return fail(err)
	}

	outputDir := op.OutputDir
	if outputDir == "" {
		outputDir = inputs[0]
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return fail(fmt.Errorf("invalid output directory: %w", err))
	}
	report.AuditPath = audit.LogPath(outputDir, op.Timestamp)
	if op.Action == models.ActionMove {
		report.QuarantineDir = audit.QuarantineRoot(outputDir, op.Timestamp)
	}

	e.logger.Info(ctx, "Starting deduplication", logging.Fields{
		"folders":  len(inputs),
		"action":   string(op.Action),
		"patterns": len(op.DeprioritizePatterns),
		"workers":  op.MaxWorkers,
	})

	// Phase 2: size index. Audit logs and quarantine trees of every run are
	// kept out of the scan.
	e.phaseStart(output.PhaseScan, 0)
	idx, err := scan.BuildSizeIndex(ctx, e.backend, inputs, scan.IndexOptions{
		ExcludePatterns: op.ExcludePatterns,
		SkipDirs:        []string{filepath.Join(outputDir, audit.DuplicatesDir)},
		MinSize:         op.MinSize,
	}, e.logger)
	if err != nil {
		return fail(err)
	}
	e.phaseComplete(output.PhaseScan)

	report.Stats.FilesScanned = idx.Files
	report.Stats.BytesScanned = idx.Bytes
	report.Stats.FilesSkipped = idx.Skipped
	report.Stats.SizeCandidates = idx.CandidateFiles()

	// Phase 3: content hashing of size collisions
	hasher := scan.NewHasher(e.backend, op.HashAlgorithm, op.BufferSize, op.MaxWorkers)
	hasher.SetPartialHashEnabled(op.PartialHash)
	hasher.SetLogger(e.logger)
	if op.ReadLimit > 0 {
		hasher.SetLimiter(ratelimit.NewLimiter(op.ReadLimit))
	}
	hasher.SetProgressCallback(func(path string, done, total int) {
		e.progress(output.PhaseHash, path, done, total)
	})

	e.phaseStart(output.PhaseHash, report.Stats.SizeCandidates)
	hashes, err := hasher.HashBuckets(ctx, idx)
	if err != nil {
		return fail(err)
	}
	e.phaseComplete(output.PhaseHash)
	idx = nil

	report.Stats.FilesHashed = hashes.Hashed
	report.Stats.HashErrors = hashes.Failed
	report.Stats.FilesSkipped += hashes.Failed

	// Phase 4: duplicate sets and principals
	sets := scan.BuildDuplicateSets(hashes)
	selector := principal.NewSelector(inputs, classifier)

	e.phaseStart(output.PhaseSelect, len(sets))
	for i, set := range sets {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		choice := selector.Choose(set)
		report.Choices = append(report.Choices, choice)
		report.Stats.DuplicateFiles += len(choice.Duplicates)
		report.Stats.ReclaimableBytes += choice.ReclaimableBytes()
		e.progress(output.PhaseSelect, choice.Principal, i+1, len(sets))
	}
	e.phaseComplete(output.PhaseSelect)
	report.Stats.DuplicateSets = len(sets)

	e.logger.Info(ctx, "Duplicate sets resolved", logging.Fields{
		"sets":        report.Stats.DuplicateSets,
		"duplicates":  report.Stats.DuplicateFiles,
		"reclaimable": report.Stats.ReclaimableBytes,
	})

	// Phase 5: action
	executor, err := action.NewExecutor(e.backend, op.Action, inputs, report.QuarantineDir, e.logger)
	if err != nil {
		return fail(err)
	}
	executor.SetProgressCallback(func(done, total int) {
		e.progress(output.PhaseAction, "", done, total)
	})

	e.phaseStart(output.PhaseAction, report.Stats.DuplicateFiles)
	result, applyErr := executor.Apply(ctx, report.Choices)
	e.phaseComplete(output.PhaseAction)

	report.Stats.FilesMoved = result.Moved
	report.Stats.FilesRemoved = result.Removed
	report.Stats.ActionErrors = result.Failed
	report.Errors = append(report.Errors, result.Errors...)

	// Phase 6: audit log, written even after cancellation so that every
	// mutation already performed is recorded
	writeErr := audit.NewWriter(e.backend).Write(ctx, report.AuditPath, result.Records, op.Action == models.ActionMove)
	if writeErr != nil {
		e.logger.Error(ctx, "Failed to write audit log", writeErr, logging.Fields{"path": report.AuditPath})
	}
	if applyErr != nil {
		return fail(applyErr)
	}
	if writeErr != nil {
		return fail(writeErr)
	}

	// Phase 7: empty directories left by move/remove
	if op.Action.Mutates() {
		e.phaseStart(output.PhaseReap, 0)
		removed, err := action.ReapEmptyDirs(ctx, e.backend, inputs, e.logger)
		report.Stats.DirsRemoved = removed
		if err != nil {
			return fail(err)
		}
		e.phaseComplete(output.PhaseReap)
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	if report.Stats.ActionErrors > 0 || report.Stats.HashErrors > 0 {
		report.Status = models.StatusPartial
	}

	e.logger.Info(ctx, "Deduplication complete", logging.Fields{
		"status":   string(report.Status),
		"duration": report.Duration.String(),
		"moved":    report.Stats.FilesMoved,
		"removed":  report.Stats.FilesRemoved,
		"errors":   report.Stats.ActionErrors,
		"audit":    report.AuditPath,
	})

	return report, nil
}

func (e *Engine) phaseStart(phase output.Phase, total int) {
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePhaseStart, Phase: phase, Total: total})
	}
}

func (e *Engine) phaseComplete(phase output.Phase) {
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePhaseComplete, Phase: phase})
	}
}

func (e *Engine) progress(phase output.Phase, path string, current, total int) {
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{
			Type:    output.UpdateItem,
			Phase:   phase,
			Path:    path,
			Current: current,
			Total:   total,
		})
	}
}
