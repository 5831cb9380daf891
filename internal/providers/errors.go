package providers

import (
	"fmt"
	"strings"
	"time"
)

// StatusError reports a non-2xx backend response. Message holds the
// provider-reported error text when the envelope could be parsed, otherwise a
// trimmed copy of the body.
type StatusError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "(no error body)"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s request: http %d (%s): %s", e.Provider, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s request: http %d: %s", e.Provider, e.StatusCode, msg)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// ProviderCode returns the provider-native error code, if any.
func (e *StatusError) ProviderCode() string { return e.Code }

// EmptyContentError reports a well-formed completion that carried no usable
// text. Empty output is never treated as a valid result.
type EmptyContentError struct {
	Provider     string
	FinishReason string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("%s completion: empty content (finish_reason=%q, response_snippet=%s)",
		e.Provider, e.FinishReason, e.Snippet)
}

// SafetyBlockedError reports a completion suppressed by the backend's content
// policy filter.
type SafetyBlockedError struct {
	Provider string
	Reason   string
}

func (e *SafetyBlockedError) Error() string {
	return fmt.Sprintf("%s completion: content blocked by safety filter (%s)", e.Provider, e.Reason)
}
