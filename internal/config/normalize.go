package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeAI()
	c.normalizeASR()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CaptionsDir) == "" {
		c.Paths.CaptionsDir = defaultCaptionsDir
	}
	if c.Paths.CaptionsDir, err = expandPath(c.Paths.CaptionsDir); err != nil {
		return fmt.Errorf("paths.captions_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = filepath.Join(os.TempDir(), "bilisum")
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDB) == "" {
		c.Paths.LibraryDB = defaultLibraryDB
	}
	if c.Paths.LibraryDB, err = expandPath(c.Paths.LibraryDB); err != nil {
		return fmt.Errorf("paths.library_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.ResourceTimeout <= 0 {
		c.API.ResourceTimeout = defaultResourceTimeout
	}
	if c.API.RequestsPerSecond < 0 {
		c.API.RequestsPerSecond = 0
	}
}

func (c *Config) normalizeAI() {
	c.AI.BaseURL = strings.TrimRight(strings.TrimSpace(c.AI.BaseURL), "/")
	c.AI.AuthToken = strings.TrimSpace(c.AI.AuthToken)
	if c.AI.AuthToken == "" {
		c.AI.AuthToken = strings.TrimSpace(os.Getenv("BILISUM_AI_TOKEN"))
	}
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = defaultAIMaxTokens
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = defaultAIMaxRetries
	}
	if c.AI.RetryBaseWait <= 0 {
		c.AI.RetryBaseWait = defaultAIRetryBaseWait
	}
	if c.AI.RequestTimeout <= 0 {
		c.AI.RequestTimeout = defaultAIRequestTimeout
	}
	if c.AI.MaxTranscriptChars <= 0 {
		c.AI.MaxTranscriptChars = defaultMaxTranscriptChars
	}
}

func (c *Config) normalizeASR() {
	c.ASR.Model = strings.TrimSpace(c.ASR.Model)
	if c.ASR.Model == "" {
		c.ASR.Model = defaultASRModel
	}
	if c.ASR.SegmentSeconds <= 0 {
		c.ASR.SegmentSeconds = defaultSegmentSeconds
	}
	if c.ASR.RequestTimeout <= 0 {
		c.ASR.RequestTimeout = defaultASRRequestTimeout
	}
	c.ASR.FFmpegBinary = strings.TrimSpace(c.ASR.FFmpegBinary)
	if c.ASR.FFmpegBinary == "" {
		c.ASR.FFmpegBinary = defaultFFmpegBinary
	}
	c.ASR.FFprobeBinary = strings.TrimSpace(c.ASR.FFprobeBinary)
	if c.ASR.FFprobeBinary == "" {
		c.ASR.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Concurrency <= 0 {
		c.Pipeline.Concurrency = defaultConcurrency
	}
	if c.Pipeline.CourtesyDelayMs < 0 {
		c.Pipeline.CourtesyDelayMs = defaultCourtesyDelayMs
	}
	if c.Pipeline.SubtitleRetries <= 0 {
		c.Pipeline.SubtitleRetries = defaultSubtitleRetries
	}
	if c.Pipeline.SubtitleRetryWait <= 0 {
		c.Pipeline.SubtitleRetryWait = defaultSubtitleRetryWait
	}
	c.Pipeline.PreferredLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.PreferredLanguage))
	if c.Pipeline.PreferredLanguage == "" {
		c.Pipeline.PreferredLanguage = defaultPreferredLanguage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
