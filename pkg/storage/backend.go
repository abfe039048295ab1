package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrDestinationExists is returned by Move when the target is already taken
var ErrDestinationExists = errors.New("destination already exists")

// FileInfo represents metadata about a filesystem entry
type FileInfo struct {
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	IsSymlink   bool
	Permissions uint32
}

// IsRegular reports whether the entry is a plain file
func (fi FileInfo) IsRegular() bool {
	return !fi.IsDir && !fi.IsSymlink
}

// WalkFunc is called for every entry visited by Backend.Walk.
// err is non-nil when the entry could not be read; info then carries only Path.
// Returning SkipDir on a directory prevents descending into it.
type WalkFunc func(info FileInfo, err error) error

// Backend defines the filesystem operations used by the deduplication engine.
// All paths are absolute.
type Backend interface {
	// Walk visits root and everything below it in lexical order.
	// Symbolic links are reported but never followed.
	Walk(ctx context.Context, root string, fn WalkFunc) error

	// Open opens a file for reading
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create creates or truncates a file for writing, creating parents
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Stat returns metadata without following a final symbolic link
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// ReadDir lists the direct children of a directory, sorted by name
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Remove deletes a file or an empty directory
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes a path and any children
	RemoveAll(ctx context.Context, path string) error

	// Move relocates a file, creating the destination parents.
	// Without overwrite an existing destination yields ErrDestinationExists.
	Move(ctx context.Context, src, dst string, overwrite bool) error

	// Rename atomically renames within one directory tree
	Rename(ctx context.Context, src, dst string) error

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
