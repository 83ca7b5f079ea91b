package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. AI credentials are not
// required here: public Bilibili endpoints work without them, and the
// summarizer reports a configuration error at call time instead.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateAI() error {
	if c.AI.BaseURL != "" && !strings.HasPrefix(c.AI.BaseURL, "http://") && !strings.HasPrefix(c.AI.BaseURL, "https://") {
		return fmt.Errorf("ai.base_url must be an http(s) URL, got %q", c.AI.BaseURL)
	}
	if c.AI.MaxTokens > 200_000 {
		return errors.New("ai.max_tokens is unreasonably large")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Concurrency > 64 {
		return errors.New("pipeline.concurrency must be 64 or lower")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
