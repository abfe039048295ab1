// Package action applies the run action to every duplicate and cleans up
// the directories the action leaves empty.
package action

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/audit"
	"github.com/sdejongh/dedupnorris/pkg/folders"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// outcome is what a handler did to one duplicate
type outcome struct {
	action      models.AuditAction
	destination string
}

type handler func(ctx context.Context, path string) (outcome, error)

// Result collects the audit records and counters of an executed action
type Result struct {
	Records []audit.Record
	Moved   int
	Removed int
	Failed  int
	Errors  []models.FileError
}

// Executor performs one action on every duplicate of a run
type Executor struct {
	backend    storage.Backend
	action     models.Action
	inputs     folders.Resolved
	quarantine string
	names      map[string]string // input folder -> directory name in quarantine
	logger     logging.Logger
	handlers   map[models.Action]handler
	progress   func(done, total int)
}

// NewExecutor creates an executor. quarantineRoot is only used by move.
func NewExecutor(backend storage.Backend, action models.Action, inputs folders.Resolved, quarantineRoot string, logger logging.Logger) (*Executor, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	e := &Executor{
		backend:    backend,
		action:     action,
		inputs:     inputs,
		quarantine: quarantineRoot,
		names:      quarantineNames(inputs),
		logger:     logger,
	}
	e.handlers = map[models.Action]handler{
		models.ActionList:   e.keep,
		models.ActionMove:   e.move,
		models.ActionRemove: e.remove,
	}

	if _, ok := e.handlers[action]; !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAction, action)
	}
	return e, nil
}

// SetProgressCallback is called after each duplicate is handled
func (e *Executor) SetProgressCallback(callback func(done, total int)) {
	e.progress = callback
}

// Apply handles every duplicate of every choice and returns one audit record
// per duplicate. Per-file failures are logged, recorded as keep and counted;
// only cancellation stops the loop early.
func (e *Executor) Apply(ctx context.Context, choices []*models.PrincipalChoice) (*Result, error) {
	result := &Result{}
	handle := e.handlers[e.action]

	total := 0
	for _, c := range choices {
		total += len(c.Duplicates)
	}

	done := 0
	for _, choice := range choices {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		for _, dup := range choice.Duplicates {
			out, err := handle(ctx, dup)
			if err != nil {
				e.logger.Warn(ctx, "Duplicate left in place", logging.Fields{
					"path":   dup,
					"action": string(e.action),
					"error":  err.Error(),
				})
				result.Failed++
				result.Errors = append(result.Errors, models.FileError{
					FilePath:  dup,
					Operation: string(e.action),
					Error:     err.Error(),
					Timestamp: time.Now(),
				})
				out = outcome{action: models.AuditKeep}
			}

			switch out.action {
			case models.AuditMove:
				result.Moved++
			case models.AuditRemove:
				result.Removed++
			}

			result.Records = append(result.Records, audit.Record{
				NumDuplicates: len(choice.Duplicates),
				Principal:     choice.Principal,
				Duplicate:     dup,
				Action:        string(out.action),
				Reason:        choice.Reason,
				Destination:   out.destination,
			})

			done++
			if e.progress != nil {
				e.progress(done, total)
			}
		}
	}

	return result, nil
}

func (e *Executor) keep(ctx context.Context, path string) (outcome, error) {
	return outcome{action: models.AuditKeep}, nil
}

func (e *Executor) move(ctx context.Context, path string) (outcome, error) {
	dst, err := e.Destination(path)
	if err != nil {
		return outcome{}, err
	}
	if err := e.backend.Move(ctx, path, dst, false); err != nil {
		return outcome{}, err
	}
	e.logger.Debug(ctx, "Moved duplicate", logging.Fields{"path": path, "destination": dst})
	return outcome{action: models.AuditMove, destination: dst}, nil
}

func (e *Executor) remove(ctx context.Context, path string) (outcome, error) {
	if err := e.backend.Remove(ctx, path); err != nil {
		return outcome{}, err
	}
	e.logger.Debug(ctx, "Removed duplicate", logging.Fields{"path": path})
	return outcome{action: models.AuditRemove}, nil
}

// Destination maps a duplicate to its place in the quarantine tree:
// <quarantine>/<input folder name>/<path relative to the input folder>
func (e *Executor) Destination(path string) (string, error) {
	folder, rel, err := e.inputs.Relative(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(e.quarantine, e.names[folder], rel), nil
}

// quarantineNames gives every input folder a distinct directory name,
// suffixing repeated base names with their input position, or the next
// free number when that name is taken too
func quarantineNames(inputs folders.Resolved) map[string]string {
	names := make(map[string]string, len(inputs))
	used := make(map[string]bool, len(inputs))
	for i, folder := range inputs {
		name := filepath.Base(folder)
		if name == string(filepath.Separator) || name == "." {
			name = "root"
		}
		base := name
		for n := i + 1; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[folder] = name
	}
	return names
}
