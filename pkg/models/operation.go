package models

import (
	"time"
)

// HashAlgorithm names the digest used to fingerprint file content
type HashAlgorithm string

const (
	// HashSHA256 is the default digest
	HashSHA256 HashAlgorithm = "sha256"
	// HashSHA1 trades strength for speed
	HashSHA1 HashAlgorithm = "sha1"
	// HashMD5 is the fastest, suitable for non-critical data
	HashMD5 HashAlgorithm = "md5"
)

// TimestampLayout formats generated run timestamps
const TimestampLayout = "20060102-150405"

// DedupOperation represents a deduplication run configuration
type DedupOperation struct {
	ID                   string
	Folders              []string // Raw folder specifiers, resolved by the engine
	Action               Action
	DeprioritizePatterns []string
	ExcludePatterns      []string
	Timestamp            string // Keys the audit log and quarantine tree
	OutputDir            string // Parent of the Duplicates directory
	HashAlgorithm        HashAlgorithm
	MaxWorkers           int
	BufferSize           int
	PartialHash          bool
	MinSize              int64
	ReadLimit            int64 // bytes per second, 0 = unlimited
	CreatedAt            time.Time
}

// Validate checks if the operation configuration is valid
func (op *DedupOperation) Validate() error {
	if len(op.Folders) == 0 {
		return &ValidationError{Field: "Folders", Message: "at least one input folder is required"}
	}
	switch op.Action {
	case ActionList, ActionMove, ActionRemove:
	default:
		return &ValidationError{Field: "Action", Message: "action must be list, move or remove"}
	}
	switch op.HashAlgorithm {
	case HashSHA256, HashSHA1, HashMD5:
	default:
		return &ValidationError{Field: "HashAlgorithm", Message: "hash must be sha256, sha1 or md5"}
	}
	if op.Timestamp == "" {
		return &ValidationError{Field: "Timestamp", Message: "timestamp is required"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.MinSize < 0 {
		return &ValidationError{Field: "MinSize", Message: "min size cannot be negative"}
	}
	return nil
}

// NewTimestamp returns a run timestamp for the given instant
func NewTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
