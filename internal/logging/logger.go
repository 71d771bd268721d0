// Package logging provides the leveled logger used across skiff.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Level represents logging severity.
type Level int

const (
	// LevelDebug includes detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo includes standard operational information.
	LevelInfo
	// LevelWarn includes warnings about rejected operations.
	LevelWarn
	// LevelError includes only error messages.
	LevelError
)

// keepRotated is the number of rotated log files kept next to the live one.
const keepRotated = 5

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "info", "INFO", "":
		return LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn, nil
	case "error", "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Fields is structured data attached to a log line.
type Fields map[string]any

// Logger writes leveled log lines as text or JSON.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	level    Level
	jsonMode bool

	filePath    string
	maxSize     int64 // bytes
	currentSize int64
}

// Config configures the logger.
type Config struct {
	Level    Level
	FilePath string
	JSONMode bool
	MaxSize  int64 // Max file size before rotation (0 = no rotation)
	// Writer is used when FilePath is empty. Defaults to stderr.
	Writer io.Writer
}

// New creates a new Logger.
func New(cfg Config) (*Logger, error) {
	l := &Logger{
		level:    cfg.Level,
		jsonMode: cfg.JSONMode,
		maxSize:  cfg.MaxSize,
	}

	if cfg.FilePath == "" {
		l.writer = cfg.Writer
		if l.writer == nil {
			l.writer = os.Stderr
		}
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// #nosec G304 - path comes from the skiff configuration
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if info, err := f.Stat(); err == nil {
		l.currentSize = info.Size()
	}

	l.writer = f
	l.filePath = cfg.FilePath
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{writer: io.Discard, level: LevelError + 1}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.writer.(*os.File); ok && f != os.Stderr && f != os.Stdout {
		return f.Close()
	}
	return nil
}

type entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Fields  Fields `json:"fields,omitempty"`
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if l == nil || level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)

	var line string
	if l.jsonMode {
		b, err := json.Marshal(entry{
			Time:    timestamp,
			Level:   level.String(),
			Message: msg,
			Fields:  fields,
		})
		if err != nil {
			line = fmt.Sprintf("%s [%s] %s\n", timestamp, level, msg)
		} else {
			line = string(b) + "\n"
		}
	} else {
		line = fmt.Sprintf("%s [%s] %s%s\n", timestamp, level, msg, formatFields(fields))
	}

	if l.maxSize > 0 && l.filePath != "" {
		if l.currentSize > 0 && l.currentSize+int64(len(line)) > l.maxSize {
			l.rotate()
		}
		l.currentSize += int64(len(line))
	}

	// Write errors are dropped; there is nowhere left to report them
	_, _ = l.writer.Write([]byte(line))
}

// formatFields renders fields as sorted key=value pairs.
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for _, k := range keys {
		out += fmt.Sprintf(" %s=%v", k, fields[k])
	}
	return out
}

func (l *Logger) rotate() {
	if f, ok := l.writer.(*os.File); ok {
		_ = f.Close()
	}

	rotatedPath := l.filePath + "." + time.Now().Format("20060102-150405.000")
	_ = os.Rename(l.filePath, rotatedPath)

	// #nosec G304 - path comes from the skiff configuration
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		l.writer = os.Stderr
		return
	}

	l.writer = f
	l.currentSize = 0
	l.cleanupOldLogs()
}

func (l *Logger) cleanupOldLogs() {
	matches, err := filepath.Glob(l.filePath + ".*")
	if err != nil || len(matches) <= keepRotated {
		return
	}

	sort.Strings(matches)
	for i := 0; i < len(matches)-keepRotated; i++ {
		_ = os.Remove(matches[i])
	}
}

func first(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(LevelDebug, msg, first(fields))
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(LevelInfo, msg, first(fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(LevelWarn, msg, first(fields))
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.log(LevelError, msg, first(fields))
}

// Level returns the current log level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}
