package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	CaptionsDir string `toml:"captions_dir"`
	LogDir      string `toml:"log_dir"`
	TempDir     string `toml:"temp_dir"`
	LibraryDB   string `toml:"library_db"`
}

// Credential contains the Bilibili session cookies used for authenticated
// API calls. All fields are optional; without them only public endpoints
// are reachable.
type Credential struct {
	Sessdata    string `toml:"sessdata"`
	BiliJct     string `toml:"bili_jct"`
	AcTimeValue string `toml:"ac_time_value"`
}

// API contains connection settings for the Bilibili REST API.
type API struct {
	BaseURL           string  `toml:"base_url"`
	RequestTimeout    int     `toml:"request_timeout"`
	ResourceTimeout   int     `toml:"resource_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// AI contains connection settings for the Anthropic-compatible LLM endpoint.
type AI struct {
	BaseURL            string `toml:"base_url"`
	AuthToken          string `toml:"auth_token"`
	Model              string `toml:"model"`
	MaxTokens          int    `toml:"max_tokens"`
	MaxRetries         int    `toml:"max_retries"`
	RetryBaseWait      int    `toml:"retry_base_wait"`
	RequestTimeout     int    `toml:"request_timeout"`
	MaxTranscriptChars int    `toml:"max_transcript_chars"`
}

// ASR contains settings for the speech-recognition fallback used when a
// video carries no subtitle track.
type ASR struct {
	Model          string `toml:"model"`
	SegmentSeconds int    `toml:"segment_seconds"`
	RequestTimeout int    `toml:"request_timeout"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Pipeline contains batch processing tunables.
type Pipeline struct {
	Concurrency       int    `toml:"concurrency"`
	CourtesyDelayMs   int    `toml:"courtesy_delay_ms"`
	SubtitleRetries   int    `toml:"subtitle_retries"`
	SubtitleRetryWait int    `toml:"subtitle_retry_wait"`
	PreferredLanguage string `toml:"preferred_language"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config aggregates every setting bilisum understands.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Credential Credential `toml:"credential"`
	API        API        `toml:"api"`
	AI         AI         `toml:"ai"`
	ASR        ASR        `toml:"asr"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bilisum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bilisum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CaptionsDir, c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dbDir := filepath.Dir(c.Paths.LibraryDB); dbDir != "" {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("create library directory %q: %w", dbDir, err)
		}
	}
	return nil
}

// HasCredential reports whether a usable session cookie is configured.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.Credential.Sessdata) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
