package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// WriteDuplicatesReport writes the duplicate sets of a run to a file.
// Format can be "human" or "json". Nothing is written when no set was found.
func WriteDuplicatesReport(report *models.DedupReport, path string, format string) error {
	if len(report.Choices) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create duplicates report: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		return writeDuplicatesJSON(report, file)
	default: // "human"
		return writeDuplicatesHuman(report, file)
	}
}

// writeDuplicatesHuman writes duplicate sets in human-readable format
func writeDuplicatesHuman(report *models.DedupReport, w io.Writer) error {
	fmt.Fprintf(w, "Duplicates Report\n")
	fmt.Fprintf(w, "=================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Folders: %s\n", strings.Join(report.Folders, ", "))
	fmt.Fprintf(w, "Action: %s\n\n", report.Action)

	fmt.Fprintf(w, "Duplicate sets: %d (%s reclaimable)\n\n",
		len(report.Choices), formatBytes(report.Stats.ReclaimableBytes))

	for i, c := range report.Choices {
		label := fmt.Sprintf("Set %d: %d files, %s each", i+1, len(c.Set.Paths), formatBytes(c.Set.Size))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))
		fmt.Fprintf(w, "  keep  %s\n", c.Principal)
		for _, d := range c.Duplicates {
			fmt.Fprintf(w, "  dup   %s\n", d)
		}
		fmt.Fprintf(w, "  Reason: %s\n\n", c.Reason)
	}

	return nil
}

// writeDuplicatesJSON writes duplicate sets in JSON format
func writeDuplicatesJSON(report *models.DedupReport, w io.Writer) error {
	output := struct {
		Generated  string        `json:"generated"`
		Folders    []string      `json:"folders"`
		Action     string        `json:"action"`
		TotalCount int           `json:"total_count"`
		Sets       []JSONSetData `json:"sets"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		Folders:    report.Folders,
		Action:     string(report.Action),
		TotalCount: len(report.Choices),
		Sets:       setData(report.Choices),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
