package llmerr

import (
	"errors"
	"fmt"
	"strings"

	"whetstone/internal/providers"
)

// Classify normalizes a raw backend failure into a ClassifiedError. Already
// classified errors pass through unchanged. The rules run in strict priority
// order: numeric HTTP status, then provider error code, then message keyword
// groups, then a generic backend fallback.
func Classify(rawErr error, provider string) *ClassifiedError {
	if rawErr == nil {
		return nil
	}

	var already *ClassifiedError
	if errors.As(rawErr, &already) {
		return already
	}

	status := 0
	code := ""
	var statusErr *providers.StatusError
	if errors.As(rawErr, &statusErr) {
		status = statusErr.StatusCode
		code = statusErr.Code
	}
	details := Details{Status: status, Code: code}

	if classified := classifyStatus(rawErr, provider, status, details, statusErr); classified != nil {
		return classified
	}
	if classified := classifyCode(rawErr, provider, code, details); classified != nil {
		return classified
	}
	if classified := classifyMessage(rawErr, provider, details); classified != nil {
		return classified
	}

	return &ClassifiedError{
		Kind:     KindBackendFailed,
		Provider: provider,
		Message:  rawErr.Error(),
		Hint:     "retry the request or check the logs for details",
		Details:  details,
		cause:    rawErr,
	}
}

func classifyStatus(rawErr error, provider string, status int, details Details, statusErr *providers.StatusError) *ClassifiedError {
	classified := &ClassifiedError{Provider: provider, Details: details, cause: rawErr}
	if statusErr != nil {
		classified.RetryAfter = statusErr.RetryAfter
	}
	switch status {
	case 429:
		classified.Kind = KindRateLimited
		classified.Message = fmt.Sprintf("%s rate limited the request (status 429)", provider)
		classified.Hint = "retry after a short backoff or reduce request rate"
	case 401, 403:
		classified.Kind = KindAuthFailed
		classified.Message = fmt.Sprintf("%s rejected the request credential (status %d)", provider, status)
		classified.Hint = credentialHint(provider)
	case 500, 502, 503, 504:
		classified.Kind = KindBackendFailed
		classified.Message = fmt.Sprintf("%s backend failed (status %d)", provider, status)
		classified.Hint = "retry after a short backoff or check provider status"
	default:
		return nil
	}
	return classified
}

func classifyCode(rawErr error, provider, code string, details Details) *ClassifiedError {
	if code == "" {
		return nil
	}
	lowered := strings.ToLower(code)
	if containsAny(lowered, "rate_limit", "rate-limit", "ratelimit", "quota", "resource_exhausted", "exhausted") {
		hint := "retry after a short backoff"
		if containsAny(lowered, "quota", "exhausted") {
			hint = "quota exhausted; review plan and billing limits"
		}
		return &ClassifiedError{
			Kind:     KindRateLimited,
			Provider: provider,
			Message:  fmt.Sprintf("%s rate limited the request (code %s)", provider, code),
			Hint:     hint,
			Details:  details,
			cause:    rawErr,
		}
	}
	if containsAny(lowered, "api_key", "auth", "unauthenticated", "permission", "forbidden") {
		return &ClassifiedError{
			Kind:     KindAuthFailed,
			Provider: provider,
			Message:  fmt.Sprintf("%s rejected the request credential (code %s)", provider, code),
			Hint:     credentialHint(provider),
			Details:  details,
			cause:    rawErr,
		}
	}
	return nil
}

// keywordGroup pairs a kind with the lowercased substrings that select it.
// Groups are scanned in order, so rate limiting wins over the transient
// group even when a message mentions both.
type keywordGroup struct {
	kind    Kind
	message string
	hint    string
	terms   []string
}

var keywordGroups = []keywordGroup{
	{
		kind:    KindRateLimited,
		message: "request failed (probable rate limiting)",
		hint:    "retry after a short backoff or reduce request rate",
		terms:   []string{"rate limit", "rate-limit", "rate_limit", "too many requests", "quota", "resource exhausted", "resource_exhausted"},
	},
	{
		kind:    KindAuthFailed,
		message: "request failed (probable credential problem)",
		terms:   []string{"unauthorized", "authentication", "api key", "api_key", "credential", "permission denied", "forbidden", "invalid key"},
	},
	{
		kind:    KindInvalidInput,
		message: "request failed (prompt exceeds the model context window)",
		hint:    "reduce prompt size or lower max_tokens",
		terms:   []string{"context length", "context_length", "maximum context", "token limit", "too many tokens", "prompt is too long", "prompt too long"},
	},
	{
		kind:    KindBackendFailed,
		message: "request failed (content blocked by provider safety filter)",
		hint:    "adjust prompt content and try again",
		terms:   []string{"safety", "content policy", "content_policy", "content filter", "content_filter", "blocked", "refus"},
	},
	{
		kind:    KindBackendFailed,
		message: "request failed (provider temporarily unavailable)",
		hint:    "retry after a short backoff or check provider status",
		terms:   []string{"unavailable", "overloaded", "timed out", "timeout", "connection reset", "connection refused", "temporarily", "try again"},
	},
}

func classifyMessage(rawErr error, provider string, details Details) *ClassifiedError {
	lowered := strings.ToLower(rawErr.Error())
	for _, group := range keywordGroups {
		if !containsAny(lowered, group.terms...) {
			continue
		}
		hint := group.hint
		if group.kind == KindAuthFailed {
			hint = credentialHint(provider)
		}
		return &ClassifiedError{
			Kind:     group.kind,
			Provider: provider,
			Message:  fmt.Sprintf("%s %s", provider, group.message),
			Hint:     hint,
			Details:  details,
			cause:    rawErr,
		}
	}
	return nil
}

// credentialHint names the environment variable a user should set for the
// provider, when one is known.
func credentialHint(provider string) string {
	if envVar := providers.CredentialEnvVar(provider); envVar != "" {
		return fmt.Sprintf("check that %s holds a valid key", envVar)
	}
	return "check the configured provider credential"
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
