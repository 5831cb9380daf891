package config

import (
	"fmt"
	"os"
	"strings"

	"whetstone/internal/providers"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeRetry()
	c.normalizeRecovery()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if envVar := providers.CredentialEnvVar(c.LLM.Provider); envVar != "" {
			if value, ok := os.LookupEnv(envVar); ok {
				c.LLM.APIKey = strings.TrimSpace(value)
			}
		}
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizeRetry() {
	// MaxRetries of zero is a valid budget (no retries), so only negative
	// values fall back to the default.
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = defaultRetryMaxRetries
	}
	if c.Retry.BaseDelayMs <= 0 {
		c.Retry.BaseDelayMs = defaultRetryBaseDelayMs
	}
	if c.Retry.MaxDelayMs <= 0 {
		c.Retry.MaxDelayMs = defaultRetryMaxDelayMs
	}
	if c.Retry.TotalTimeoutMs <= 0 {
		c.Retry.TotalTimeoutMs = defaultRetryTotalTimeoutMs
	}
}

func (c *Config) normalizeRecovery() {
	if c.Recovery.MaxResponseBytes <= 0 {
		c.Recovery.MaxResponseBytes = defaultMaxResponseBytes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
