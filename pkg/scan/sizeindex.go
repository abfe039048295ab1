// Package scan builds the size index and content fingerprints that confirm
// which files are byte-identical.
package scan

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// IndexOptions controls what the size index includes
type IndexOptions struct {
	ExcludePatterns []string
	// SkipDirs are absolute directories never entered, such as the quarantine root
	SkipDirs []string
	// MinSize excludes files smaller than this many bytes
	MinSize int64
}

// SizeIndex groups regular files by exact byte size
type SizeIndex struct {
	Buckets map[int64][]string

	Files   int   // Regular files indexed
	Bytes   int64 // Total size of indexed files
	Skipped int   // Entries left out: unreadable, symlinks, excluded
}

// Candidates returns the sizes shared by at least two files, ascending
func (idx *SizeIndex) Candidates() []int64 {
	var sizes []int64
	for size, paths := range idx.Buckets {
		if len(paths) >= 2 {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	return sizes
}

// CandidateFiles counts files in buckets with at least two members
func (idx *SizeIndex) CandidateFiles() int {
	n := 0
	for _, paths := range idx.Buckets {
		if len(paths) >= 2 {
			n += len(paths)
		}
	}
	return n
}

// BuildSizeIndex walks every folder once and buckets regular files by size.
// Symbolic links, the junk directory and excluded entries are skipped; a file
// that cannot be read is logged and left out. A file reachable from two
// nested folders is indexed once.
func BuildSizeIndex(ctx context.Context, backend storage.Backend, folders []string, opts IndexOptions, logger logging.Logger) (*SizeIndex, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	idx := &SizeIndex{Buckets: make(map[int64][]string)}
	excluder := NewExcluder(opts.ExcludePatterns)
	seen := make(map[string]bool)

	for _, folder := range folders {
		// Stop before starting the next folder
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Info(ctx, "Scanning folder", logging.Fields{"folder": folder})

		err := backend.Walk(ctx, folder, func(info storage.FileInfo, err error) error {
			if err != nil {
				if info.Path == folder {
					return err
				}
				logger.Warn(ctx, "Skipping unreadable entry", logging.Fields{
					"path":  info.Path,
					"error": err.Error(),
				})
				idx.Skipped++
				return nil
			}

			if info.Path == folder {
				return nil
			}

			if info.IsSymlink {
				logger.Debug(ctx, "Skipping symbolic link", logging.Fields{"path": info.Path})
				idx.Skipped++
				return nil
			}

			rel, relErr := filepath.Rel(folder, info.Path)
			if relErr != nil {
				rel = info.Name
			}

			if info.IsDir {
				if info.Name == JunkDirName || isSkipped(info.Path, opts.SkipDirs) || excluder.Excluded(rel, true) {
					logger.Debug(ctx, "Skipping directory", logging.Fields{"path": info.Path})
					return storage.SkipDir
				}
				return nil
			}

			if !info.IsRegular() {
				idx.Skipped++
				return nil
			}

			if excluder.Excluded(rel, false) || info.Size < opts.MinSize {
				idx.Skipped++
				return nil
			}

			if seen[info.Path] {
				return nil
			}
			seen[info.Path] = true

			idx.Buckets[info.Size] = append(idx.Buckets[info.Size], info.Path)
			idx.Files++
			idx.Bytes += info.Size
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info(ctx, "Size index built", logging.Fields{
		"files":      idx.Files,
		"bytes":      idx.Bytes,
		"candidates": idx.CandidateFiles(),
		"skipped":    idx.Skipped,
	})

	return idx, nil
}

func isSkipped(path string, skipDirs []string) bool {
	for _, dir := range skipDirs {
		if platform.IsWithin(dir, path) {
			return true
		}
	}
	return false
}
