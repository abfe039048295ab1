package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer    io.Writer
	startTime time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, op *models.DedupOperation) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.startTime = time.Now()

	if op != nil {
		fmt.Fprintf(writer, "Searching duplicates in %s (action: %s)\n",
			strings.Join(op.Folders, ", "), op.Action)
	}
	return nil
}

// Progress prints one line per phase
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdatePhaseStart:
		if update.Total > 0 {
			fmt.Fprintf(f.writer, "%s (%d items)...\n", phaseLabel(update.Phase), update.Total)
		} else {
			fmt.Fprintf(f.writer, "%s...\n", phaseLabel(update.Phase))
		}
	}
	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.DedupReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	w := f.writer
	s := report.Stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Deduplication completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Scanned:\n")
	fmt.Fprintf(w, "    Files:            %d (%s)\n", s.FilesScanned, formatBytes(s.BytesScanned))
	fmt.Fprintf(w, "    Skipped:          %d\n", s.FilesSkipped)
	fmt.Fprintf(w, "    Size candidates:  %d\n", s.SizeCandidates)
	fmt.Fprintf(w, "    Hashed:           %d\n", s.FilesHashed)
	if s.HashErrors > 0 {
		fmt.Fprintf(w, "    Unreadable:       %d\n", s.HashErrors)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Duplicates:\n")
	fmt.Fprintf(w, "    Sets:             %d\n", s.DuplicateSets)
	fmt.Fprintf(w, "    Files:            %d\n", s.DuplicateFiles)
	fmt.Fprintf(w, "    Reclaimable:      %s\n", formatBytes(s.ReclaimableBytes))

	if report.Action.Mutates() {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "  Operations:\n")
		fmt.Fprintf(w, "    Files moved:      %d\n", s.FilesMoved)
		fmt.Fprintf(w, "    Files removed:    %d\n", s.FilesRemoved)
		fmt.Fprintf(w, "    Errors:           %d\n", s.ActionErrors)
		fmt.Fprintf(w, "    Dirs removed:     %d\n", s.DirsRemoved)
	}

	fmt.Fprintf(w, "\n")
	if report.AuditPath != "" {
		fmt.Fprintf(w, "Audit log: %s\n", report.AuditPath)
	}
	if report.QuarantineDir != "" && s.FilesMoved > 0 {
		fmt.Fprintf(w, "Quarantine: %s\n", report.QuarantineDir)
	}
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	writeErrors(w, report.Errors)
	return nil
}

// CompleteRevert displays the summary of an audit log replay
func (f *HumanFormatter) CompleteRevert(report *models.RevertReport) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}
	w := f.writer

	fmt.Fprintf(w, "Replayed %s in %s\n", report.AuditPath, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Removed:   %d\n", report.Removed)
	fmt.Fprintf(w, "  Restored:  %d\n", report.Restored)
	fmt.Fprintf(w, "  Replaced:  %d\n", report.Replaced)
	fmt.Fprintf(w, "  Skipped:   %d\n", report.Skipped)
	fmt.Fprintf(w, "  Failed:    %d\n", report.Failed)
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	writeErrors(w, report.Errors)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	w := f.writer
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func writeErrors(w io.Writer, errs []models.FileError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nErrors:\n")
	for _, err := range errs {
		fmt.Fprintf(w, "  %s (%s): %s\n", err.FilePath, err.Operation, err.Error)
	}
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
