package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
)

// newMemBackend creates a backend on an in-memory filesystem seeded with files
func newMemBackend(t *testing.T, files map[string]string) *Local {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for path, content := range files {
		if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
	return NewLocalFs(fsys)
}

// TestLocalWalk tests the Walk method
func TestLocalWalk(t *testing.T) {
	local := newMemBackend(t, map[string]string{
		"/root/b.txt":     "b",
		"/root/a.txt":     "a",
		"/root/sub/c.txt": "c",
	})
	ctx := context.Background()

	t.Run("LexicalOrder", func(t *testing.T) {
		var visited []string
		err := local.Walk(ctx, "/root", func(info FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsRegular() {
				visited = append(visited, info.Path)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		want := []string{"/root/a.txt", "/root/b.txt", "/root/sub/c.txt"}
		if len(visited) != len(want) {
			t.Fatalf("Walk() visited %v, want %v", visited, want)
		}
		for i := range want {
			if visited[i] != filepath.FromSlash(want[i]) {
				t.Errorf("visited[%d] = %s, want %s", i, visited[i], want[i])
			}
		}
	})

	t.Run("SkipDir", func(t *testing.T) {
		count := 0
		err := local.Walk(ctx, "/root", func(info FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir && info.Name == "sub" {
				return SkipDir
			}
			if info.IsRegular() {
				count++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if count != 2 {
			t.Errorf("Walk() counted %d files, want 2", count)
		}
	})

	t.Run("MissingRoot", func(t *testing.T) {
		err := local.Walk(ctx, "/missing", func(info FileInfo, err error) error {
			return err
		})
		if err == nil {
			t.Error("Walk() should fail for a missing root")
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := local.Walk(ctx, "/root", func(info FileInfo, err error) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Walk() error = %v, want context.Canceled", err)
		}
	})
}

// TestLocalWalkSymlink checks that links are reported but not followed
func TestLocalWalkSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on Windows")
	}

	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "target")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "file.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(tempDir, "link")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	local := NewLocal()
	var links, files int
	err := local.Walk(context.Background(), tempDir, func(info FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsSymlink {
			links++
		} else if info.IsRegular() {
			files++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if links != 1 {
		t.Errorf("Walk() reported %d symlinks, want 1", links)
	}
	if files != 1 {
		t.Errorf("Walk() reported %d files, want 1 (link must not be followed)", files)
	}
}

// TestLocalMove tests the Move method
func TestLocalMove(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesParents", func(t *testing.T) {
		local := newMemBackend(t, map[string]string{"/src/a.txt": "hello"})

		if err := local.Move(ctx, "/src/a.txt", "/dst/deep/a.txt", false); err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if ok, _ := local.Exists(ctx, "/src/a.txt"); ok {
			t.Error("source should be gone after Move()")
		}
		data, err := afero.ReadFile(local.Fs(), "/dst/deep/a.txt")
		if err != nil {
			t.Fatalf("failed to read destination: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("destination content = %q, want hello", data)
		}
	})

	t.Run("RefusesOverwrite", func(t *testing.T) {
		local := newMemBackend(t, map[string]string{
			"/src/a.txt": "new",
			"/dst/a.txt": "old",
		})

		err := local.Move(ctx, "/src/a.txt", "/dst/a.txt", false)
		if !errors.Is(err, ErrDestinationExists) {
			t.Errorf("Move() error = %v, want ErrDestinationExists", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		local := newMemBackend(t, map[string]string{
			"/src/a.txt": "new",
			"/dst/a.txt": "old",
		})

		if err := local.Move(ctx, "/src/a.txt", "/dst/a.txt", true); err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		data, _ := afero.ReadFile(local.Fs(), "/dst/a.txt")
		if string(data) != "new" {
			t.Errorf("destination content = %q, want new", data)
		}
	})

	t.Run("MissingSource", func(t *testing.T) {
		local := newMemBackend(t, nil)
		if err := local.Move(ctx, "/nope.txt", "/dst/nope.txt", false); err == nil {
			t.Error("Move() should fail for a missing source")
		}
	})
}

// TestLocalReadDir tests the ReadDir method
func TestLocalReadDir(t *testing.T) {
	local := newMemBackend(t, map[string]string{
		"/root/z.txt":     "z",
		"/root/a.txt":     "a",
		"/root/sub/c.txt": "c",
	})

	entries, err := local.ReadDir(context.Background(), "/root")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	want := []string{"a.txt", "sub", "z.txt"}
	if len(entries) != len(want) {
		t.Fatalf("ReadDir() returned %d entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Name, name)
		}
	}
	if !entries[1].IsDir {
		t.Error("sub should be reported as a directory")
	}
}

// TestLocalCreateAndOpen tests writing then reading back a file
func TestLocalCreateAndOpen(t *testing.T) {
	local := newMemBackend(t, nil)
	ctx := context.Background()

	w, err := local.Create(ctx, "/out/nested/report.csv")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := io.WriteString(w, "héllo"); err != nil {
		t.Fatalf("write error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := local.Open(ctx, "/out/nested/report.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	data, _ := io.ReadAll(r)
	if string(data) != "héllo" {
		t.Errorf("content = %q, want héllo", data)
	}
}
