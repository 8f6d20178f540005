package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediasort/internal/testsupport"
)

type cliTestEnv struct {
	baseDir  string
	inputDir string
	output   string
	stateDir string
	backups  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"INPUT_DIR", "OUTPUT_DIR", "MODE", "STATE_DIR", "LOG_LEVEL", "FILENAME_SCHEME"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:  base,
		inputDir: filepath.Join(base, "input"),
		output:   filepath.Join(base, "library"),
		stateDir: filepath.Join(base, "state"),
		backups:  filepath.Join(base, "backups"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	return env
}

// baseFlags points every path at the test environment and silences logs.
func (e *cliTestEnv) baseFlags() []string {
	return []string{
		"-o", "STATE_DIR=" + e.stateDir,
		"-o", "BACKUP_DIR=" + e.backups,
		"-o", "METADATA_BACKEND=native",
		"-o", "LOG_LEVEL=OFF",
	}
}

func (e *cliTestEnv) organizeArgs(extra ...string) []string {
	args := []string{"organize", "--input", e.inputDir, "--output", e.output}
	return append(args, extra...)
}

func (e *cliTestEnv) writeVideo(t *testing.T) string {
	t.Helper()
	mtime := time.Date(2022, 1, 3, 0, 0, 0, 0, time.Local)
	return testsupport.WriteMedia(t, filepath.Join(e.inputDir, "DSC_0002.MOV"), "moving pictures", mtime)
}

func runCLI(t *testing.T, env *cliTestEnv, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if env != nil {
		flags = env.baseFlags()
	}
	cmd.SetArgs(append(args, flags...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
