package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. The daemon socket and lock file
// live under the log directory so a single path covers all runtime state.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// LLM contains connection settings for the configured generation backend.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTokens      int    `toml:"max_tokens"`
}

// Retry contains bounded-retry settings for backend requests.
type Retry struct {
	MaxRetries     int `toml:"max_retries"`
	BaseDelayMs    int `toml:"base_delay_ms"`
	MaxDelayMs     int `toml:"max_delay_ms"`
	TotalTimeoutMs int `toml:"total_timeout_ms"`
}

// Recovery contains guards applied to backend output before structured parsing.
type Recovery struct {
	MaxResponseBytes int  `toml:"max_response_bytes"`
	DebugPreview     bool `toml:"debug_preview"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Whetstone.
//
// Configuration sections by subsystem:
//   - Paths: log directory (also hosts the daemon socket and lock file)
//   - LLM: provider selection, credential, model, and request timeout
//   - Retry: attempt budget and backoff windows for backend requests
//   - Recovery: response-size guard and debug preview for JSON recovery
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	Retry    Retry    `toml:"retry"`
	Recovery Recovery `toml:"recovery"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/whetstone/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	defaultPath, err := expandPath("~/.config/whetstone/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("whetstone.toml")
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

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "whetstone.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "whetstoned.lock")
}

// DaemonLogPath returns the primary daemon log file location.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "whetstone.log")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "whetstoned.pid")
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
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains normalized backend connection settings.
type LLMConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// GetLLM returns the backend connection settings with whitespace trimmed and
// the timeout converted to a duration.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:  strings.TrimSpace(c.LLM.Provider),
		APIKey:    strings.TrimSpace(c.LLM.APIKey),
		BaseURL:   strings.TrimSpace(c.LLM.BaseURL),
		Model:     strings.TrimSpace(c.LLM.Model),
		Timeout:   time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxTokens: c.LLM.MaxTokens,
	}
}

// RetryConfig contains retry settings converted to durations.
type RetryConfig struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	TotalTimeout time.Duration
}

// GetRetry returns the retry budget with millisecond fields converted to durations.
func (c *Config) GetRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:   c.Retry.MaxRetries,
		BaseDelay:    time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
		TotalTimeout: time.Duration(c.Retry.TotalTimeoutMs) * time.Millisecond,
	}
}

// RecoveryConfig contains structured-output recovery guards.
type RecoveryConfig struct {
	MaxResponseBytes int
	DebugPreview     bool
}

// GetRecovery returns the recovery guard settings.
func (c *Config) GetRecovery() RecoveryConfig {
	return RecoveryConfig{
		MaxResponseBytes: c.Recovery.MaxResponseBytes,
		DebugPreview:     c.Recovery.DebugPreview,
	}
}
