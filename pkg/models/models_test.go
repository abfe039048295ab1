package models

import (
	"errors"
	"testing"
	"time"
)

// ============== Action Tests ==============

func TestParseAction(t *testing.T) {
	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{"list", ActionList, false},
		{"move", ActionMove, false},
		{"remove", ActionRemove, false},
		{"delete", "", true},
		{"", "", true},
		{"LIST", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAction) {
				t.Errorf("ParseAction(%q) error should wrap ErrInvalidAction", tt.input)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestActionMutates(t *testing.T) {
	if ActionList.Mutates() {
		t.Error("list should not mutate the filesystem")
	}
	if !ActionMove.Mutates() || !ActionRemove.Mutates() {
		t.Error("move and remove should mutate the filesystem")
	}
}

func TestParseReversal(t *testing.T) {
	tests := []struct {
		input  string
		want   Reversal
		wantOK bool
	}{
		{"remove_duplicate", ReversalRemove, true},
		{"restore_duplicate", ReversalRestore, true},
		{"replace_duplicate", ReversalReplace, true},
		{"keep", "", false},
		{"move", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseReversal(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseReversal(%q) = (%s, %v), want (%s, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ============== DedupOperation Tests ==============

func validOperation() *DedupOperation {
	return &DedupOperation{
		Folders:       []string{"/photos"},
		Action:        ActionList,
		HashAlgorithm: HashSHA256,
		Timestamp:     "20240101-120000",
		MaxWorkers:    4,
		BufferSize:    65536,
	}
}

func TestDedupOperationValidate(t *testing.T) {
	t.Run("ValidOperation", func(t *testing.T) {
		if err := validOperation().Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(op *DedupOperation)
		field  string
	}{
		{"NoFolders", func(op *DedupOperation) { op.Folders = nil }, "Folders"},
		{"BadAction", func(op *DedupOperation) { op.Action = "delete" }, "Action"},
		{"BadHash", func(op *DedupOperation) { op.HashAlgorithm = "crc32" }, "HashAlgorithm"},
		{"NoTimestamp", func(op *DedupOperation) { op.Timestamp = "" }, "Timestamp"},
		{"ZeroWorkers", func(op *DedupOperation) { op.MaxWorkers = 0 }, "MaxWorkers"},
		{"SmallBuffer", func(op *DedupOperation) { op.BufferSize = 512 }, "BufferSize"},
		{"NegativeMinSize", func(op *DedupOperation) { op.MinSize = -1 }, "MinSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validOperation()
			tt.mutate(op)

			err := op.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error type = %T, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("ValidationError.Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestNewTimestamp(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC))
	if ts != "20240309-070501" {
		t.Errorf("NewTimestamp() = %s, want 20240309-070501", ts)
	}
}

// ============== Report Tests ==============

func TestStatusExitCode(t *testing.T) {
	tests := []struct {
		status   Status
		expected int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{Status("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPrincipalChoiceReclaimableBytes(t *testing.T) {
	choice := &PrincipalChoice{
		Set:        &DuplicateSet{Size: 1000, Paths: []string{"/a", "/b", "/c"}},
		Principal:  "/a",
		Duplicates: []string{"/b", "/c"},
	}
	if got := choice.ReclaimableBytes(); got != 2000 {
		t.Errorf("ReclaimableBytes() = %d, want 2000", got)
	}
}

func TestRevertReportPerformed(t *testing.T) {
	r := &RevertReport{Removed: 1, Restored: 2, Replaced: 3, Skipped: 10, Failed: 4}
	if got := r.Performed(); got != 6 {
		t.Errorf("Performed() = %d, want 6", got)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "TestField", Message: "test message"}
	if err.Error() != "TestField: test message" {
		t.Errorf("Error() = %s, want TestField: test message", err.Error())
	}
}
