package config

const (
	defaultLogDir           = "~/.local/share/whetstone/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultLLMProvider       = "openai"
	defaultLLMTimeoutSeconds = 60
	defaultLLMMaxTokens      = 1024

	defaultRetryMaxRetries     = 3
	defaultRetryBaseDelayMs    = 500
	defaultRetryMaxDelayMs     = 8000
	defaultRetryTotalTimeoutMs = 120000

	defaultMaxResponseBytes = 1 << 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTokens:      defaultLLMMaxTokens,
		},
		Retry: Retry{
			MaxRetries:     defaultRetryMaxRetries,
			BaseDelayMs:    defaultRetryBaseDelayMs,
			MaxDelayMs:     defaultRetryMaxDelayMs,
			TotalTimeoutMs: defaultRetryTotalTimeoutMs,
		},
		Recovery: Recovery{
			MaxResponseBytes: defaultMaxResponseBytes,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
