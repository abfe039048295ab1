package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// SkipDir is returned by a WalkFunc to skip the directory just visited
var SkipDir = filepath.SkipDir

// Local is a filesystem backend built on afero
type Local struct {
	fs afero.Fs
}

// NewLocal creates a backend on the host filesystem
func NewLocal() *Local {
	return &Local{fs: afero.NewOsFs()}
}

// NewLocalFs creates a backend on an arbitrary afero filesystem
func NewLocalFs(fsys afero.Fs) *Local {
	return &Local{fs: fsys}
}

// Fs exposes the underlying afero filesystem
func (l *Local) Fs() afero.Fs {
	return l.fs
}

// Walk visits root and its descendants in lexical order
func (l *Local) Walk(ctx context.Context, root string, fn WalkFunc) error {
	return afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			entry := FileInfo{Path: p}
			if info != nil {
				entry = toFileInfo(p, info)
			}
			return fn(entry, err)
		}

		return fn(toFileInfo(p, info), nil)
	})
}

// Open opens a file for reading
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Create creates or truncates a file, creating parent directories
func (l *Local) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := l.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// Stat returns metadata without following a final symbolic link
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := l.lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fi := toFileInfo(path, info)
	return &fi, nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := l.lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// ReadDir lists the direct children of a directory
func (l *Local) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	dir, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	sort.Strings(names)

	entries := make([]FileInfo, 0, len(names))
	for _, name := range names {
		child := filepath.Join(path, name)
		info, err := l.lstat(child)
		if err != nil {
			// Entry vanished between listing and stat
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", child, err)
		}
		entries = append(entries, toFileInfo(child, info))
	}

	return entries, nil
}

// Remove deletes a file or an empty directory
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := l.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// RemoveAll deletes a path and any children
func (l *Local) RemoveAll(ctx context.Context, path string) error {
	if err := l.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Move relocates a file. A failed rename (e.g. across devices) falls back
// to copy then delete.
func (l *Local) Move(ctx context.Context, src, dst string, overwrite bool) error {
	srcInfo, err := l.lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("cannot move directory: %s", src)
	}

	if _, err := l.lstat(dst); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		if err := l.fs.Remove(dst); err != nil {
			return fmt.Errorf("failed to replace destination: %w", err)
		}
	}

	if err := l.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	renameErr := l.fs.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	if err := l.copyFile(ctx, src, dst, srcInfo); err != nil {
		return fmt.Errorf("failed to move file: %w", renameErr)
	}
	if err := l.fs.Remove(src); err != nil {
		return fmt.Errorf("copied but failed to delete source: %w", err)
	}
	return nil
}

// Rename renames a path in place
func (l *Local) Rename(ctx context.Context, src, dst string) error {
	if err := l.fs.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := l.fs.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// copyFile copies content, timestamps and permissions
func (l *Local) copyFile(ctx context.Context, src, dst string, srcInfo os.FileInfo) error {
	in, err := l.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := l.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	written, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written != srcInfo.Size() {
		err = fmt.Errorf("incomplete copy: expected %d bytes, wrote %d", srcInfo.Size(), written)
	}
	if err != nil {
		l.fs.Remove(dst)
		return err
	}

	// Preserve modification time
	return l.fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// lstat avoids following symbolic links when the filesystem allows it
func (l *Local) lstat(path string) (os.FileInfo, error) {
	if lst, ok := l.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return l.fs.Stat(path)
}

func toFileInfo(path string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:        path,
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		IsSymlink:   info.Mode()&os.ModeSymlink != 0,
		Permissions: uint32(info.Mode().Perm()),
	}
}
