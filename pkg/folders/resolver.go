// Package folders turns caller supplied folder specifiers into the ordered,
// validated list of roots a deduplication run works on.
package folders

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Resolved is the ordered list of input folders. Lower index means higher
// priority when choosing a principal.
type Resolved []string

// Resolve normalizes folder specifiers into absolute, existing, unique paths.
// Each specifier may hold several folders separated by commas or semicolons.
// A missing folder aborts with models.ErrFolderNotFound.
func Resolve(ctx context.Context, backend storage.Backend, specs []string) (Resolved, error) {
	var resolved Resolved
	seen := make(map[string]bool)

	for _, spec := range specs {
		for _, part := range platform.SplitList(spec) {
			abs, err := platform.NormalizePath(part)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve folder %q: %w", part, err)
			}
			if seen[abs] {
				continue
			}

			info, err := backend.Stat(ctx, abs)
			if err != nil {
				exists, existsErr := backend.Exists(ctx, abs)
				if existsErr == nil && !exists {
					return nil, fmt.Errorf("%w: %s", models.ErrFolderNotFound, abs)
				}
				return nil, fmt.Errorf("failed to access folder %s: %w", abs, err)
			}
			if !info.IsDir {
				return nil, fmt.Errorf("%w: %s", models.ErrNotDirectory, abs)
			}

			seen[abs] = true
			resolved = append(resolved, abs)
		}
	}

	if len(resolved) == 0 {
		return nil, models.ErrNoFolders
	}

	return resolved, nil
}

// IndexOf returns the index of the first folder containing path,
// or len(r) when no folder contains it
func (r Resolved) IndexOf(path string) int {
	for i, folder := range r {
		if platform.IsWithin(folder, path) {
			return i
		}
	}
	return len(r)
}

// Owner returns the first folder containing path
func (r Resolved) Owner(path string) (string, bool) {
	i := r.IndexOf(path)
	if i == len(r) {
		return "", false
	}
	return r[i], true
}

// Relative returns path relative to its owning folder, along with that folder
func (r Resolved) Relative(path string) (folder, rel string, err error) {
	folder, ok := r.Owner(path)
	if !ok {
		return "", "", fmt.Errorf("path %s is outside every input folder", path)
	}
	rel, err = filepath.Rel(folder, path)
	if err != nil {
		return "", "", err
	}
	return folder, rel, nil
}
