package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig creates a config file whose paths all live inside a
// fresh temp tree and returns its path plus the base directory.
func writeTestConfig(t *testing.T, extra string) (configPath, baseDir string) {
	t.Helper()
	baseDir = t.TempDir()
	content := fmt.Sprintf(`[paths]
output_dir = %q
captions_dir = %q
log_dir = %q
temp_dir = %q
library_db = %q
%s`,
		filepath.Join(baseDir, "summary"),
		filepath.Join(baseDir, "captions"),
		filepath.Join(baseDir, "logs"),
		filepath.Join(baseDir, "tmp"),
		filepath.Join(baseDir, "library.db"),
		extra)
	configPath = filepath.Join(baseDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, baseDir
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}
