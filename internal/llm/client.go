package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"whetstone/internal/config"
	"whetstone/internal/llmerr"
	"whetstone/internal/logging"
	"whetstone/internal/providers"
	"whetstone/internal/services"
)

// GenerationRequest captures the per-call inputs for one generation.
// Identifiers are optional and used for log correlation only.
type GenerationRequest struct {
	Prompt    string
	MaxTokens int
	Timeout   time.Duration
	RequestID string
	SessionID string
}

// RequestOption customizes a single generation call.
type RequestOption func(*GenerationRequest)

// WithMaxTokens overrides the configured completion budget for this call.
func WithMaxTokens(n int) RequestOption {
	return func(r *GenerationRequest) { r.MaxTokens = n }
}

// WithTimeout overrides the per-attempt timeout for this call.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *GenerationRequest) { r.Timeout = d }
}

// WithRequestID sets the correlation identifier for this call.
func WithRequestID(id string) RequestOption {
	return func(r *GenerationRequest) { r.RequestID = id }
}

// WithSessionID tags this call with the owning session.
func WithSessionID(id string) RequestOption {
	return func(r *GenerationRequest) { r.SessionID = id }
}

// Client executes generation requests against the configured backend with
// bounded retries and structured-output recovery.
type Client struct {
	provider string
	llmCfg   config.LLMConfig
	recovery config.RecoveryConfig
	engine   *Engine
	handle   *handle
	logger   *slog.Logger
}

// Option customizes client construction.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	adapter    providers.Adapter
	engineOpts []EngineOption
}

// WithHTTPClient overrides the transport handed to adapter construction.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithAdapter installs a pre-built adapter, bypassing lazy construction.
func WithAdapter(adapter providers.Adapter) Option {
	return func(o *clientOptions) { o.adapter = adapter }
}

// WithEngineOptions forwards options to the retry engine.
func WithEngineOptions(opts ...EngineOption) Option {
	return func(o *clientOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// New builds a client from application configuration. Adapter construction
// is deferred until the first request so a missing credential surfaces as a
// classified request failure rather than a startup crash.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	options := clientOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	llmCfg := cfg.GetLLM()
	log := logging.NewComponentLogger(logger, "llm")

	client := &Client{
		provider: llmCfg.Provider,
		llmCfg:   llmCfg,
		recovery: cfg.GetRecovery(),
		logger:   log,
	}

	retry := cfg.GetRetry()
	client.engine = NewEngine(llmCfg.Provider, RetryPolicy{
		MaxRetries:   retry.MaxRetries,
		BaseDelay:    retry.BaseDelay,
		MaxDelay:     retry.MaxDelay,
		TotalTimeout: retry.TotalTimeout,
	}, log, options.engineOpts...)

	client.handle = newHandle(func() (providers.Adapter, error) {
		return buildAdapter(llmCfg, options.httpClient)
	})
	if options.adapter != nil {
		client.handle.set(options.adapter)
	}
	return client
}

// Provider returns the configured backend name.
func (c *Client) Provider() string {
	return c.provider
}

// buildAdapter resolves the credential and constructs the provider adapter.
// The environment is consulted again here, not just at config load, so a
// credential exported after startup is picked up on the next construction.
func buildAdapter(cfg config.LLMConfig, httpClient *http.Client) (providers.Adapter, error) {
	pcfg := providers.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	if pcfg.APIKey == "" {
		pcfg.APIKey = strings.TrimSpace(os.Getenv(providers.CredentialEnvVar(cfg.Provider)))
	}
	if pcfg.APIKey == "" {
		return nil, fmt.Errorf("no credential configured for %s", cfg.Provider)
	}

	var opts []providers.Option
	if httpClient != nil {
		opts = append(opts, providers.WithHTTPClient(httpClient))
	}
	return providers.New(cfg.Provider, pcfg, opts...)
}

// GenerateText runs one generation request through the retry engine and
// returns the produced text. Failures come back as classified errors and a
// successful call never returns an empty string.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts ...RequestOption) (string, error) {
	req := GenerationRequest{Prompt: prompt, MaxTokens: c.llmCfg.MaxTokens, Timeout: c.llmCfg.Timeout}
	for _, opt := range opts {
		opt(&req)
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return "", llmerr.New(llmerr.KindInvalidInput, c.provider,
			"prompt must not be empty", "supply a non-empty prompt")
	}
	if req.MaxTokens <= 0 {
		return "", llmerr.New(llmerr.KindInvalidInput, c.provider,
			"max tokens must be positive", "supply a positive max_tokens value")
	}

	if req.RequestID == "" {
		if rid, ok := services.RequestIDFromContext(ctx); ok {
			req.RequestID = rid
		} else {
			req.RequestID = uuid.NewString()
		}
	}
	ctx = services.WithRequestID(ctx, req.RequestID)
	if req.SessionID != "" {
		ctx = services.WithSessionID(ctx, req.SessionID)
	}
	log := logging.WithContext(ctx, c.logger)

	adapter, err := c.handle.get()
	if err != nil {
		classified := llmerr.Classify(err, c.provider)
		logging.ErrorWithContext(log, "backend handle unavailable", "llm_handle_failed",
			logging.String(logging.FieldProvider, c.provider),
			logging.String(logging.FieldErrorKind, string(classified.Kind)),
			logging.Error(classified),
			logging.String(logging.FieldErrorHint, classified.Hint),
		)
		return "", classified
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = adapter.DefaultTimeout()
	}

	op := func(opCtx context.Context) (string, error) {
		attemptCtx, cancel := context.WithTimeout(opCtx, timeout)
		defer cancel()

		httpReq, err := adapter.BuildRequest(req.Prompt, req.MaxTokens)
		if err != nil {
			return "", err
		}
		body, err := adapter.Invoke(attemptCtx, httpReq)
		if err != nil {
			return "", err
		}
		return adapter.ExtractText(body)
	}

	start := time.Now()
	log.Debug("dispatching generation request",
		logging.String(logging.FieldProvider, c.provider),
		logging.String("model", c.llmCfg.Model),
		logging.Int("max_tokens", req.MaxTokens),
		logging.Duration("timeout", timeout),
	)

	text, err := c.engine.Execute(ctx, op)
	if err != nil {
		classified := llmerr.Classify(err, c.provider)
		if classified.Kind == llmerr.KindAuthFailed {
			// Let the next call rebuild the adapter with fresh credentials.
			c.handle.invalidate()
		}
		return "", classified
	}

	log.Info("generation complete",
		logging.String(logging.FieldProvider, c.provider),
		logging.Int("chars", len(text)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
