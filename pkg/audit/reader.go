package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// ErrEmptyLog is returned for a log without a header row
var ErrEmptyLog = errors.New("audit log is empty")

// Read loads every record of an audit log. Columns are located by header
// name, so hand-edited logs with reordered or extra columns are accepted.
func Read(ctx context.Context, backend storage.Backend, path string) ([]Record, error) {
	in, err := backend.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer in.Close()

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyLog
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit header: %w", err)
	}

	s, err := newSchema(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read audit line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		rec, err := s.decode(row)
		if err != nil {
			return nil, fmt.Errorf("audit line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
