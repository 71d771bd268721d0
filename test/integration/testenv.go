//go:build integration

// Package integration drives the skiff binary end to end.
package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// TestEnv is an isolated home for one test: its own config, data and store
// directories, so the user's real profiles are never touched.
type TestEnv struct {
	t          *testing.T
	Binary     string
	HomeDir    string
	ConfigFile string
	StoreDir   string
}

// NewTestEnv creates an isolated environment for t.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	home := t.TempDir()
	return &TestEnv{
		t:          t,
		Binary:     SkiffBinaryPath(t),
		HomeDir:    home,
		ConfigFile: filepath.Join(home, "config", "config.yaml"),
		StoreDir:   filepath.Join(home, "store"),
	}
}

func (e *TestEnv) environ() []string {
	return append(os.Environ(),
		"HOME="+e.HomeDir,
		"SKIFF_CONFIG_DIR="+filepath.Dir(e.ConfigFile),
		"SKIFF_DATA_DIR="+filepath.Join(e.HomeDir, "data"),
		"XDG_CACHE_HOME="+filepath.Join(e.HomeDir, "cache"),
		"SKIFF_TEST_STORE_DIR="+e.StoreDir,
		"EDITOR=",
		"VISUAL=",
	)
}

// Run runs skiff with stdin and returns stdout, stderr and the exit error.
func (e *TestEnv) Run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// #nosec G204 - binary path comes from the test setup
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Env = e.environ()
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// MustRun runs skiff and fails the test on a non-zero exit.
func (e *TestEnv) MustRun(stdin string, args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.Run(stdin, args...)
	if err != nil {
		e.t.Fatalf("skiff %s failed: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, stdout, stderr)
	}
	return stdout
}

// WriteFile writes a file inside the environment's home.
func (e *TestEnv) WriteFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.HomeDir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		e.t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// SkiffBinaryPath returns the path to the skiff binary under test.
func SkiffBinaryPath(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("SKIFF_BINARY"); path != "" {
		return path
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get caller information")
	}

	// Go up from test/integration to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	binaryPath := filepath.Join(projectRoot, "bin", "skiff")
	if runtime.GOOS == "windows" {
		binaryPath += ".exe"
	}

	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Fatalf("skiff binary not found at %s - build it with 'go build -o bin/skiff ./cmd/skiff'", binaryPath)
	}
	return binaryPath
}
