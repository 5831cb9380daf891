package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider names accepted in configuration.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
)

var credentialEnvVars = map[string]string{
	NameOpenAI:    "OPENAI_API_KEY",
	NameAnthropic: "ANTHROPIC_API_KEY",
	NameGemini:    "GEMINI_API_KEY",
}

// Names returns the supported provider names in display order.
func Names() []string {
	return []string{NameOpenAI, NameAnthropic, NameGemini}
}

// Known reports whether name identifies a supported provider.
func Known(name string) bool {
	_, ok := credentialEnvVars[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// CredentialEnvVar returns the environment variable that supplies the
// provider's API key, or an empty string for unknown providers.
func CredentialEnvVar(name string) string {
	return credentialEnvVars[strings.ToLower(strings.TrimSpace(name))]
}

// Config captures the runtime settings required to talk to a backend.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Adapter translates generic generation calls into one backend's wire shape.
//
// The three methods carry no retry logic of their own. BuildRequest and
// ExtractText are pure, Invoke is the only transport step, and the caller owns
// timeout and cancellation through the context handed to Invoke.
type Adapter interface {
	// Name identifies the backend for error classification and logging.
	Name() string

	// DefaultTimeout is the per-call timeout applied when the caller does
	// not supply one.
	DefaultTimeout() time.Duration

	// BuildRequest produces the provider HTTP request for a prompt.
	BuildRequest(prompt string, maxTokens int) (*http.Request, error)

	// Invoke performs the request and returns the raw response body.
	// Non-2xx statuses are returned as *StatusError with any provider
	// error code and Retry-After hint attached.
	Invoke(ctx context.Context, req *http.Request) ([]byte, error)

	// ExtractText pulls the generated text out of a response body.
	// A completion with no usable content is an error, never an empty
	// string.
	ExtractText(body []byte) (string, error)
}

// Option customizes adapter construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the transport used by Invoke.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// New constructs the adapter for the named provider.
func New(name string, cfg Config, opts ...Option) (Adapter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		// Per-call deadlines come from the context handed to Invoke, so
		// the transport itself carries no timeout.
		o.httpClient = &http.Client{}
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)

	switch normalized {
	case NameOpenAI:
		return newOpenAI(cfg, o.httpClient), nil
	case NameAnthropic:
		return newAnthropic(cfg, o.httpClient), nil
	case NameGemini:
		return newGemini(cfg, o.httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}
