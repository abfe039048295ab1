// Package audit reads and writes the per-run CSV log of duplicate handling.
//
// The log is the only state shared between a dedup run and a later revert:
// both sides go through the column schema defined here.
package audit

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names, in file order. The misspelled reason header is kept for
// compatibility with existing logs.
const (
	ColNumDuplicates = "Num_Duplicates"
	ColPrincipal     = "Principal"
	ColDuplicate     = "Duplicate"
	ColAction        = "Action"
	ColReason        = "Reasson for Principal"
	ColDestination   = "Destination"
)

// Layout names shared by the audit log and the quarantine tree
const (
	DuplicatesDir = "Duplicates"
	RunPrefix     = "Duplicates_"
	FileExtension = ".csv"
)

// Record is one row of the audit log, describing one duplicate file
type Record struct {
	NumDuplicates int
	Principal     string
	Duplicate     string
	Action        string
	Reason        string
	Destination   string // set only for move runs
}

// Header returns the column row; Destination is appended for move runs
func Header(withDestination bool) []string {
	cols := []string{ColNumDuplicates, ColPrincipal, ColDuplicate, ColAction, ColReason}
	if withDestination {
		cols = append(cols, ColDestination)
	}
	return cols
}

// Row serializes the record in Header order
func (r Record) Row(withDestination bool) []string {
	row := []string{
		strconv.Itoa(r.NumDuplicates),
		r.Principal,
		r.Duplicate,
		r.Action,
		r.Reason,
	}
	if withDestination {
		row = append(row, r.Destination)
	}
	return row
}

// LogPath returns the audit log location for a run
func LogPath(outputDir, timestamp string) string {
	return filepath.Join(outputDir, DuplicatesDir, RunPrefix+timestamp+FileExtension)
}

// QuarantineRoot returns the directory duplicates are moved under for a run
func QuarantineRoot(outputDir, timestamp string) string {
	return filepath.Join(outputDir, DuplicatesDir, RunPrefix+timestamp)
}

// schema maps column names to their positions in a parsed header
type schema map[string]int

var requiredColumns = []string{ColNumDuplicates, ColPrincipal, ColDuplicate, ColAction}

func newSchema(header []string) (schema, error) {
	s := make(schema, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := s[name]; !dup {
			s[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := s[col]; !ok {
			return nil, fmt.Errorf("audit log is missing column %q", col)
		}
	}
	return s, nil
}

func (s schema) get(row []string, col string) string {
	i, ok := s[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// decode builds a record from a data row
func (s schema) decode(row []string) (Record, error) {
	rec := Record{
		Principal:   s.get(row, ColPrincipal),
		Duplicate:   s.get(row, ColDuplicate),
		Action:      strings.TrimSpace(s.get(row, ColAction)),
		Reason:      s.get(row, ColReason),
		Destination: s.get(row, ColDestination),
	}

	if n := strings.TrimSpace(s.get(row, ColNumDuplicates)); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			return rec, fmt.Errorf("invalid %s value %q", ColNumDuplicates, n)
		}
		rec.NumDuplicates = v
	}

	return rec, nil
}
