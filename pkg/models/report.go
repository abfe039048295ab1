package models

import (
	"time"
)

// DedupReport represents the results of a deduplication run
type DedupReport struct {
	// Operation details
	OperationID string
	Folders     []string // Resolved folders, in priority order
	Action      Action
	Timestamp   string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Choices made for every duplicate set
	Choices []*PrincipalChoice

	// AuditPath is the CSV written for this run
	AuditPath string

	// QuarantineDir receives moved duplicates (move runs only)
	QuarantineDir string

	// Errors are per-file failures that did not abort the run
	Errors []FileError

	// Overall status
	Status Status
}

// Statistics holds deduplication metrics
type Statistics struct {
	FilesScanned     int
	BytesScanned     int64
	FilesSkipped     int // Unreadable, excluded or symlinked entries
	SizeCandidates   int // Files sharing their size with another file
	FilesHashed      int
	HashErrors       int // Files dropped because they could not be read
	DuplicateSets    int
	DuplicateFiles   int
	ReclaimableBytes int64
	FilesMoved       int
	FilesRemoved     int
	ActionErrors     int
	DirsRemoved      int
}

// Status represents the overall result
type Status string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess Status = "success"
	// StatusPartial indicates some operations failed
	StatusPartial Status = "partial"
	// StatusFailed indicates the run failed
	StatusFailed Status = "failed"
	// StatusCancelled indicates the run was cancelled
	StatusCancelled Status = "cancelled"
)

// FileError represents a recoverable error on a single path
type FileError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// ExitCode returns the appropriate exit code for the status
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// RevertReport summarizes a replay of reversal directives
type RevertReport struct {
	AuditPath string
	StartTime time.Time
	Duration  time.Duration

	Removed  int
	Restored int
	Replaced int
	Skipped  int // Rows without a reversal directive
	Failed   int

	Errors []FileError
	Status Status
}

// Performed is the number of directives applied
func (r *RevertReport) Performed() int {
	return r.Removed + r.Restored + r.Replaced
}
