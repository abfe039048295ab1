package action

import (
	"context"
	"path/filepath"

	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/scan"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// ReapEmptyDirs removes directories below each root that hold nothing but
// (possibly) the junk metadata directory, deepest first. Roots are kept.
// Failures are logged and skipped. It returns the number of removed directories.
func ReapEmptyDirs(ctx context.Context, backend storage.Backend, roots []string, logger logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	r := &reaper{backend: backend, logger: logger}
	for _, root := range roots {
		if _, err := r.reap(ctx, root, true); err != nil {
			return r.removed, err
		}
	}
	return r.removed, nil
}

type reaper struct {
	backend storage.Backend
	logger  logging.Logger
	removed int
}

// reap reports whether dir was empty and has been removed
func (r *reaper) reap(ctx context.Context, dir string, root bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	entries, err := r.backend.ReadDir(ctx, dir)
	if err != nil {
		r.logger.Warn(ctx, "Failed to list directory", logging.Fields{"path": dir, "error": err.Error()})
		return false, nil
	}

	empty := true
	for _, entry := range entries {
		if !entry.IsDir || entry.IsSymlink {
			empty = false
			continue
		}
		if entry.Name == scan.JunkDirName {
			continue
		}
		gone, err := r.reap(ctx, filepath.Join(dir, entry.Name), false)
		if err != nil {
			return false, err
		}
		if !gone {
			empty = false
		}
	}

	if !empty || root {
		return false, nil
	}

	if err := r.backend.RemoveAll(ctx, dir); err != nil {
		r.logger.Warn(ctx, "Failed to remove empty directory", logging.Fields{"path": dir, "error": err.Error()})
		return false, nil
	}

	r.removed++
	r.logger.Info(ctx, "Removed empty directory", logging.Fields{"path": dir})
	return true, nil
}
