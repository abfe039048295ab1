package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	errors []string
}

// JSONReportData represents the final report of a run
type JSONReportData struct {
	OperationID   string          `json:"operation_id"`
	Status        string          `json:"status"`
	Action        string          `json:"action"`
	Timestamp     string          `json:"timestamp"`
	Folders       []string        `json:"folders"`
	Duration      string          `json:"duration"`
	DurationMs    int64           `json:"duration_ms"`
	AuditPath     string          `json:"audit_path,omitempty"`
	QuarantineDir string          `json:"quarantine_dir,omitempty"`
	Stats         JSONStatsData   `json:"stats"`
	Sets          []JSONSetData   `json:"sets"`
	Errors        []JSONErrorData `json:"errors,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	FilesScanned     int   `json:"files_scanned"`
	BytesScanned     int64 `json:"bytes_scanned"`
	FilesSkipped     int   `json:"files_skipped"`
	SizeCandidates   int   `json:"size_candidates"`
	FilesHashed      int   `json:"files_hashed"`
	HashErrors       int   `json:"hash_errors"`
	DuplicateSets    int   `json:"duplicate_sets"`
	DuplicateFiles   int   `json:"duplicate_files"`
	ReclaimableBytes int64 `json:"reclaimable_bytes"`
	FilesMoved       int   `json:"files_moved"`
	FilesRemoved     int   `json:"files_removed"`
	ActionErrors     int   `json:"action_errors"`
	DirsRemoved      int   `json:"dirs_removed"`
}

// JSONSetData represents one duplicate set and its principal
type JSONSetData struct {
	Fingerprint string   `json:"fingerprint"`
	Size        int64    `json:"size"`
	Principal   string   `json:"principal"`
	Duplicates  []string `json:"duplicates"`
	Reason      string   `json:"reason"`
}

// JSONRevertData represents the result of an audit log replay
type JSONRevertData struct {
	AuditPath  string          `json:"audit_path"`
	Status     string          `json:"status"`
	DurationMs int64           `json:"duration_ms"`
	Removed    int             `json:"removed"`
	Restored   int             `json:"restored"`
	Replaced   int             `json:"replaced"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Errors     []JSONErrorData `json:"errors,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path      string `json:"path"`
	Operation string `json:"operation,omitempty"`
	Error     string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, op *models.DedupOperation) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is silent to keep the output a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the run report as one JSON document
func (f *JSONFormatter) Complete(report *models.DedupReport) error {
	s := report.Stats
	data := JSONReportData{
		OperationID:   report.OperationID,
		Status:        string(report.Status),
		Action:        string(report.Action),
		Timestamp:     report.Timestamp,
		Folders:       report.Folders,
		Duration:      report.Duration.Round(time.Millisecond).String(),
		DurationMs:    report.Duration.Milliseconds(),
		AuditPath:     report.AuditPath,
		QuarantineDir: report.QuarantineDir,
		Stats: JSONStatsData{
			FilesScanned:     s.FilesScanned,
			BytesScanned:     s.BytesScanned,
			FilesSkipped:     s.FilesSkipped,
			SizeCandidates:   s.SizeCandidates,
			FilesHashed:      s.FilesHashed,
			HashErrors:       s.HashErrors,
			DuplicateSets:    s.DuplicateSets,
			DuplicateFiles:   s.DuplicateFiles,
			ReclaimableBytes: s.ReclaimableBytes,
			FilesMoved:       s.FilesMoved,
			FilesRemoved:     s.FilesRemoved,
			ActionErrors:     s.ActionErrors,
			DirsRemoved:      s.DirsRemoved,
		},
		Sets:   setData(report.Choices),
		Errors: errorData(report.Errors),
	}
	return f.encode(data)
}

// CompleteRevert writes the replay report as one JSON document
func (f *JSONFormatter) CompleteRevert(report *models.RevertReport) error {
	return f.encode(JSONRevertData{
		AuditPath:  report.AuditPath,
		Status:     string(report.Status),
		DurationMs: report.Duration.Milliseconds(),
		Removed:    report.Removed,
		Restored:   report.Restored,
		Replaced:   report.Replaced,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Errors:     errorData(report.Errors),
	})
}

// Error writes a fatal error as a JSON document
func (f *JSONFormatter) Error(err error) error {
	return f.encode(map[string]string{
		"status": string(models.StatusFailed),
		"error":  err.Error(),
	})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) encode(v any) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func setData(choices []*models.PrincipalChoice) []JSONSetData {
	sets := make([]JSONSetData, 0, len(choices))
	for _, c := range choices {
		sets = append(sets, JSONSetData{
			Fingerprint: c.Set.Fingerprint,
			Size:        c.Set.Size,
			Principal:   c.Principal,
			Duplicates:  c.Duplicates,
			Reason:      c.Reason,
		})
	}
	return sets
}

func errorData(errs []models.FileError) []JSONErrorData {
	var out []JSONErrorData
	for _, err := range errs {
		out = append(out, JSONErrorData{
			Path:      err.FilePath,
			Operation: err.Operation,
			Error:     err.Error,
		})
	}
	return out
}
