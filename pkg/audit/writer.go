package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Writer persists audit logs through a storage backend
type Writer struct {
	backend storage.Backend
}

// NewWriter creates an audit log writer
func NewWriter(backend storage.Backend) *Writer {
	return &Writer{backend: backend}
}

// Write builds the whole log in one pass into a temporary file next to
// path, then renames it into place. Records are written in the given order.
func (w *Writer) Write(ctx context.Context, path string, records []Record, withDestination bool) error {
	if err := w.backend.MkdirAll(ctx, filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	tmp := path + ".tmp"
	out, err := w.backend.Create(ctx, tmp)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if err := writeRecords(out, records, withDestination); err != nil {
		w.backend.Remove(ctx, tmp)
		return err
	}

	if err := w.backend.Rename(ctx, tmp, path); err != nil {
		w.backend.Remove(ctx, tmp)
		return fmt.Errorf("failed to finalize audit log: %w", err)
	}
	return nil
}

// writeRecords writes the header and every row, then closes out
func writeRecords(out io.WriteCloser, records []Record, withDestination bool) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header(withDestination)); err != nil {
		out.Close()
		return fmt.Errorf("failed to write audit header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row(withDestination)); err != nil {
			out.Close()
			return fmt.Errorf("failed to write audit row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		out.Close()
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}
