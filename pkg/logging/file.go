package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// sink is the destination shared by a logger and every WithFields child
type sink struct {
	mu          sync.Mutex
	writer      io.Writer
	file        *os.File // nil for stream sinks
	config      FileLoggerConfig
	currentSize int64
}

// FileLogger writes structured entries to a file or a stream
type FileLogger struct {
	sink   *sink
	format Format
	level  Level
	fields Fields
}

// NewFileLogger creates a logger appending to a file, rotating by size
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &FileLogger{
		sink: &sink{
			writer:      file,
			file:        file,
			config:      config,
			currentSize: info.Size(),
		},
		format: config.Format,
		level:  config.Level,
	}, nil
}

// NewStreamLogger creates a logger writing to w (typically os.Stderr)
func NewStreamLogger(w io.Writer, format Format, level Level) *FileLogger {
	return &FileLogger{
		sink:   &sink{writer: w},
		format: format,
		level:  level,
	}
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields sharing the same output
func (l *FileLogger) WithFields(fields Fields) Logger {
	return &FileLogger{
		sink:   l.sink,
		format: l.format,
		level:  l.level,
		fields: merge(l.fields, fields),
	}
}

// Close flushes and closes the logger
func (l *FileLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		l.sink.writer = io.Discard
		return err
	}
	return nil
}

// log writes a log entry
func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}

	all := merge(l.fields, fields)

	var line []byte
	if l.format == FormatJSON {
		var jsonErr error
		line, jsonErr = formatJSON(level, msg, err, all)
		if jsonErr != nil {
			return
		}
	} else {
		line = formatText(level, msg, err, all)
	}

	l.sink.write(line)
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil && s.config.MaxSize > 0 && s.currentSize >= s.config.MaxSize {
		s.rotate()
	}

	n, _ := s.writer.Write(line)
	s.currentSize += int64(n)
}

// rotate shifts backups (.1 is newest) and reopens the log file; caller holds mu
func (s *sink) rotate() {
	s.file.Close()

	path := s.config.Path
	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}
	if s.config.MaxBackups > 0 {
		os.Rename(path, path+".1")
		os.Remove(fmt.Sprintf("%s.%d", path, s.config.MaxBackups+1))
	} else {
		os.Remove(path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.file = nil
		s.writer = io.Discard
		return
	}

	s.file = file
	s.writer = file
	s.currentSize = 0
}

// formatJSON formats a log entry as one JSON object per line
func formatJSON(level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     LevelString(level),
		"message":   msg,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	for k, v := range fields {
		entry[k] = v
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}
	return append(data, '\n'), nil
}

// formatText formats a log entry as plain text with sorted key=value pairs
func formatText(level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"), LevelString(level), msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

func merge(base, extra Fields) Fields {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
