package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	configPath, baseDir := writeTestConfig(t, "")

	target := filepath.Join(baseDir, "fresh", "config.toml")
	out, _, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse to clobber.
	if _, _, err := runCLI(t, configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when target already exists")
	}
	if _, _, err := runCLI(t, configPath, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsEffectiveSettings(t *testing.T) {
	configPath, baseDir := writeTestConfig(t, "")

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, filepath.Join(baseDir, "summary"))
	requireContains(t, out, "https://api.bilibili.com")
	requireContains(t, out, "Credential:    no")
}
