package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"trace", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelDebug, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("profile saved", Fields{"id": "abc", "size": 12})

	output := buf.String()
	if !strings.Contains(output, "[INFO] profile saved") {
		t.Errorf("expected level and message, got: %s", output)
	}
	if !strings.Contains(output, " id=abc size=12") {
		t.Errorf("expected sorted fields, got: %s", output)
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelDebug, JSONMode: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Warn("save rejected", Fields{"reason": "locked"})

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if e.Level != "WARN" {
		t.Errorf("expected level WARN, got %s", e.Level)
	}
	if e.Message != "save rejected" {
		t.Errorf("expected message 'save rejected', got %s", e.Message)
	}
	if e.Fields["reason"] != "locked" {
		t.Errorf("expected reason field 'locked', got %v", e.Fields["reason"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Level: LevelWarn, Writer: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("expected no output for debug/info at WARN level, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("expected warn message to be logged")
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("expected error message to be logged")
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger, _ := New(Config{Level: LevelInfo, Writer: &bytes.Buffer{}})

	if logger.Level() != LevelInfo {
		t.Error("Level() should return INFO")
	}
	logger.SetLevel(LevelDebug)
	if logger.Level() != LevelDebug {
		t.Error("SetLevel(DEBUG) didn't change level")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	// Must not panic at any level
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
}

func TestLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "skiff.log")

	logger, err := New(Config{Level: LevelInfo, FilePath: logFile})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("file message")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file message") {
		t.Errorf("log file doesn't contain expected message: %s", content)
	}
}

func TestLogger_Rotation(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "skiff.log")

	logger, err := New(Config{Level: LevelInfo, FilePath: logFile, MaxSize: 64})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Close()

	logger.Info(strings.Repeat("a", 40))
	logger.Info(strings.Repeat("b", 40))

	rotated, err := filepath.Glob(logFile + ".*")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(rotated) != 1 {
		t.Fatalf("expected 1 rotated file, got %d", len(rotated))
	}

	old, _ := os.ReadFile(rotated[0])
	if !strings.Contains(string(old), "aaaa") {
		t.Errorf("rotated file should hold the first line, got: %s", old)
	}
	current, _ := os.ReadFile(logFile)
	if !strings.Contains(string(current), "bbbb") || strings.Contains(string(current), "aaaa") {
		t.Errorf("live file should hold only the second line, got: %s", current)
	}
}
