package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilisum/internal/config"
)

func TestLoadDefaultsWhenNoFilePresent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BILISUM_AI_TOKEN", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "bilisum", "summary")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Pipeline.Concurrency != 12 {
		t.Fatalf("unexpected concurrency: %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.SubtitleRetries != 3 {
		t.Fatalf("unexpected subtitle retries: %d", cfg.Pipeline.SubtitleRetries)
	}
	if cfg.AI.MaxTranscriptChars != 30_000 {
		t.Fatalf("unexpected transcript budget: %d", cfg.AI.MaxTranscriptChars)
	}
	if cfg.API.BaseURL != "https://api.bilibili.com" {
		t.Fatalf("unexpected api base url: %q", cfg.API.BaseURL)
	}
	if cfg.HasCredential() {
		t.Fatal("expected no credential by default")
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "~/notes"`,
		"[credential]",
		`sessdata = "abc"`,
		`bili_jct = "csrf"`,
		"[pipeline]",
		"concurrency = 4",
		"courtesy_delay_ms = 100",
		"[ai]",
		`auth_token = "tok"`,
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "notes") {
		t.Fatalf("tilde not expanded: %q", cfg.Paths.OutputDir)
	}
	if cfg.Pipeline.Concurrency != 4 {
		t.Fatalf("unexpected concurrency: %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.CourtesyDelayMs != 100 {
		t.Fatalf("unexpected courtesy delay: %d", cfg.Pipeline.CourtesyDelayMs)
	}
	if !cfg.HasCredential() {
		t.Fatal("expected credential to be detected")
	}
	if cfg.AI.AuthToken != "tok" {
		t.Fatalf("unexpected ai token: %q", cfg.AI.AuthToken)
	}
}

func TestLoadEnvTokenFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BILISUM_AI_TOKEN", "env-token")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AI.AuthToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.AI.AuthToken)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}

func TestValidateRejectsBadAPIURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"ftp://example.com\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for non-http base url")
	}
}

func TestNormalizeClampsZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[pipeline]\nconcurrency = 0\nsubtitle_retries = -1\n[asr]\nsegment_seconds = 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Pipeline.Concurrency != 12 {
		t.Fatalf("expected default concurrency, got %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.SubtitleRetries != 3 {
		t.Fatalf("expected default retries, got %d", cfg.Pipeline.SubtitleRetries)
	}
	if cfg.ASR.SegmentSeconds != 60 {
		t.Fatalf("expected default segment length, got %d", cfg.ASR.SegmentSeconds)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.AI.Model == "" {
		t.Fatal("expected default model in sample")
	}
}
