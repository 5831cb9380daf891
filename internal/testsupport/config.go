package testsupport

import (
	"path/filepath"
	"testing"

	"whetstone/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp log directory per
// test and a credentialed provider so request paths do not trip preflight.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.Provider = "openai"
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.LLM.Model = "gpt-4o-mini"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithProvider sets the generation backend on the test config.
func WithProvider(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.Provider = name
	}
}

// WithAPIKey sets the provider credential on the test config. An empty key
// clears the default so credential-resolution paths can be exercised.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithRetryBudget overrides the attempt budget on the test config.
func WithRetryBudget(maxRetries, baseDelayMs int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.MaxRetries = maxRetries
		b.cfg.Retry.BaseDelayMs = baseDelayMs
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
