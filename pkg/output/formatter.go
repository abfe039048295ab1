package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Phase identifies a stage of a deduplication run
type Phase string

const (
	PhaseScan   Phase = "scan"
	PhaseHash   Phase = "hash"
	PhaseSelect Phase = "select"
	PhaseAction Phase = "action"
	PhaseReap   Phase = "reap"
)

// Progress update types
const (
	UpdatePhaseStart    = "phase_start"
	UpdateItem          = "item"
	UpdatePhaseComplete = "phase_complete"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type    string // "phase_start", "item", "phase_complete"
	Phase   Phase
	Path    string
	Current int
	Total   int
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, op *models.DedupOperation) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the run summary
	Complete(report *models.DedupReport) error

	// CompleteRevert displays the summary of an audit log replay
	CompleteRevert(report *models.RevertReport) error

	// Error reports a fatal error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name
func New(name string) (Formatter, error) {
	switch name {
	case "human":
		return NewHumanFormatter(), nil
	case "progress":
		return NewProgressFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: human, progress, json)", name)
	}
}

// phaseLabel is the title shown for a phase
func phaseLabel(phase Phase) string {
	switch phase {
	case PhaseScan:
		return "Scanning"
	case PhaseHash:
		return "Hashing"
	case PhaseSelect:
		return "Selecting principals"
	case PhaseAction:
		return "Applying action"
	case PhaseReap:
		return "Removing empty directories"
	default:
		return string(phase)
	}
}
