package config

import (
	"errors"
	"fmt"
	"strings"

	"whetstone/internal/providers"
)

// Validate ensures the configuration is usable.
//
// A missing API key does not fail validation: credentials may arrive later in
// the process lifetime (for example an operator exporting the env var after
// daemon start), and the backend client handle retries construction on the
// next request.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateRecovery(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !providers.Known(c.LLM.Provider) {
		return fmt.Errorf("llm.provider must be one of %s, got %q",
			strings.Join(providers.Names(), ", "), c.LLM.Provider)
	}
	// Zero means "use the provider's default per-call timeout".
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be >= 0")
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.max_tokens": c.LLM.MaxTokens,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries must be >= 0")
	}
	if err := ensurePositiveMap(map[string]int{
		"retry.base_delay_ms":    c.Retry.BaseDelayMs,
		"retry.max_delay_ms":     c.Retry.MaxDelayMs,
		"retry.total_timeout_ms": c.Retry.TotalTimeoutMs,
	}); err != nil {
		return err
	}
	if c.Retry.BaseDelayMs > c.Retry.MaxDelayMs {
		return errors.New("retry.base_delay_ms must not exceed retry.max_delay_ms")
	}
	return nil
}

func (c *Config) validateRecovery() error {
	if c.Recovery.MaxResponseBytes <= 0 {
		return errors.New("recovery.max_response_bytes must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
