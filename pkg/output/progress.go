package output

import (
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

const barTemplate = `{{string . "phase"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{etime . }}`

// getRefreshRate returns the bar refresh interval based on OS
// Windows terminals have higher latency with ANSI sequences
func getRefreshRate() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter draws a progress bar per phase and prints the
// human-readable summary at the end. On a non-terminal writer it behaves
// like HumanFormatter.
type ProgressFormatter struct {
	*HumanFormatter

	mu          sync.Mutex
	writer      io.Writer
	interactive bool
	bar         *pb.ProgressBar
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{HumanFormatter: NewHumanFormatter()}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, op *models.DedupOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.interactive = isTerminal(writer)

	return f.HumanFormatter.Start(writer, op)
}

// Progress updates the bar of the current phase
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.interactive {
		return f.HumanFormatter.Progress(update)
	}

	switch update.Type {
	case UpdatePhaseStart:
		f.finishBar()
		if update.Total <= 0 {
			return f.HumanFormatter.Progress(update)
		}
		f.bar = pb.ProgressBarTemplate(barTemplate).New(update.Total)
		f.bar.SetWriter(f.writer)
		f.bar.SetRefreshRate(getRefreshRate())
		f.bar.Set("phase", phaseLabel(update.Phase))
		f.bar.Start()

	case UpdateItem:
		if f.bar != nil {
			f.bar.SetCurrent(int64(update.Current))
		}

	case UpdatePhaseComplete:
		f.finishBar()
	}
	return nil
}

// Complete closes any open bar and prints the summary
func (f *ProgressFormatter) Complete(report *models.DedupReport) error {
	f.mu.Lock()
	f.finishBar()
	f.mu.Unlock()
	return f.HumanFormatter.Complete(report)
}

// Error closes any open bar and reports the error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	f.finishBar()
	f.mu.Unlock()
	return f.HumanFormatter.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// finishBar stops the current bar; caller holds mu
func (f *ProgressFormatter) finishBar() {
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
