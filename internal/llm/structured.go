package llm

import (
	"context"

	"whetstone/internal/jsonextract"
	"whetstone/internal/llmerr"
	"whetstone/internal/logging"
	"whetstone/internal/services"
)

// strictJSONSuffix reinforces the output contract on the fallback attempt.
// Re-sending the same prompt verbatim tends to reproduce the same malformed
// output, so the retry changes the prompt instead.
const strictJSONSuffix = "\n\nReturn ONLY valid JSON, with no markdown fences, no commentary, and no text outside the JSON value."

// StructuredResult carries the recovered payload, the recovery strategy that
// produced it, and whether the reinforced fallback attempt was needed.
type StructuredResult struct {
	Text         string
	Stage        jsonextract.Stage
	UsedFallback bool
}

// StructuredOption customizes a structured generation call.
type StructuredOption func(*structuredCall)

type structuredCall struct {
	fallback bool
	genOpts  []RequestOption
}

// WithoutFallback disables the reinforced second attempt on parse failure.
func WithoutFallback() StructuredOption {
	return func(c *structuredCall) { c.fallback = false }
}

// WithGeneration forwards per-call options to the underlying text requests.
func WithGeneration(opts ...RequestOption) StructuredOption {
	return func(c *structuredCall) {
		c.genOpts = append(c.genOpts, opts...)
	}
}

// GenerateJSON asks the backend for a structured payload and recovers it
// from whatever text comes back. When recovery fails on the first response,
// one more generation runs with a strict-JSON instruction appended to the
// prompt; a failure after that is terminal. The label names the operation in
// logs and error context.
func (c *Client) GenerateJSON(ctx context.Context, label, prompt string, validate jsonextract.Validate, opts ...StructuredOption) (StructuredResult, error) {
	call := structuredCall{fallback: true}
	for _, opt := range opts {
		opt(&call)
	}
	if validate == nil {
		return StructuredResult{}, llmerr.New(llmerr.KindInvalidInput, c.provider,
			"structured generation requires a validator", "supply a validation callback")
	}

	ctx = services.WithOperation(ctx, label)
	log := logging.WithContext(ctx, c.logger)
	recoveryOpts := jsonextract.Options{
		MaxBytes:     c.recovery.MaxResponseBytes,
		DebugPreview: c.recovery.DebugPreview,
	}

	text, err := c.GenerateText(ctx, prompt, call.genOpts...)
	if err != nil {
		return StructuredResult{}, err
	}
	result, recoverErr := jsonextract.Recover(text, validate, recoveryOpts)
	if recoverErr == nil {
		log.Debug("structured response recovered",
			logging.String("recovery_stage", string(result.Stage)),
			logging.Bool("used_fallback", false),
		)
		return StructuredResult{Text: result.Text, Stage: result.Stage}, nil
	}
	if !call.fallback {
		return StructuredResult{}, services.Wrap(services.ErrParse, "llm", label,
			"structured response recovery failed", recoverErr)
	}

	logging.WarnWithContext(log, "structured recovery failed; retrying with reinforced prompt", "llm_parse_retry",
		logging.Error(recoverErr),
		logging.String(logging.FieldErrorHint, "the model returned unparseable output"),
		logging.String(logging.FieldImpact, "one extra generation request"),
	)

	text, err = c.GenerateText(ctx, prompt+strictJSONSuffix, call.genOpts...)
	if err != nil {
		return StructuredResult{}, err
	}
	result, recoverErr = jsonextract.Recover(text, validate, recoveryOpts)
	if recoverErr != nil {
		return StructuredResult{}, services.Wrap(services.ErrParse, "llm", label,
			"structured response recovery failed after reinforced retry", recoverErr)
	}

	log.Debug("structured response recovered",
		logging.String("recovery_stage", string(result.Stage)),
		logging.Bool("used_fallback", true),
	)
	return StructuredResult{Text: result.Text, Stage: result.Stage, UsedFallback: true}, nil
}
