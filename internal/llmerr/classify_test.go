package llmerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"whetstone/internal/providers"
	"whetstone/internal/services"
)

func TestClassifyStatusTable(t *testing.T) {
	cases := []struct {
		status   int
		wantKind Kind
		marker   error
	}{
		{429, KindRateLimited, services.ErrRateLimited},
		{401, KindAuthFailed, services.ErrAuth},
		{403, KindAuthFailed, services.ErrAuth},
		{500, KindBackendFailed, services.ErrBackend},
		{502, KindBackendFailed, services.ErrBackend},
		{503, KindBackendFailed, services.ErrBackend},
		{504, KindBackendFailed, services.ErrBackend},
	}
	for _, tc := range cases {
		raw := &providers.StatusError{Provider: "openai", StatusCode: tc.status}
		classified := Classify(raw, "openai")
		if classified.Kind != tc.wantKind {
			t.Fatalf("status %d: kind = %s, want %s", tc.status, classified.Kind, tc.wantKind)
		}
		if !errors.Is(classified, tc.marker) {
			t.Fatalf("status %d: marker %v not in chain", tc.status, tc.marker)
		}
		if classified.Details.Status != tc.status {
			t.Fatalf("status %d: details carry status %d", tc.status, classified.Details.Status)
		}
	}
}

func TestClassifyRateLimitWithoutMessage(t *testing.T) {
	raw := &providers.StatusError{Provider: "openai", StatusCode: 429}
	classified := Classify(raw, "openai")
	if classified.Kind != KindRateLimited {
		t.Fatalf("kind = %s, want %s", classified.Kind, KindRateLimited)
	}
	if classified.Message == "" {
		t.Fatal("expected a templated message for a bare 429")
	}
}

func TestClassifyAuthHintNamesEnvVar(t *testing.T) {
	raw := &providers.StatusError{Provider: "anthropic", StatusCode: 403}
	classified := Classify(raw, "anthropic")
	if classified.Kind != KindAuthFailed {
		t.Fatalf("kind = %s, want %s", classified.Kind, KindAuthFailed)
	}
	if want := "ANTHROPIC_API_KEY"; !contains(classified.Hint, want) {
		t.Fatalf("hint %q does not name %s", classified.Hint, want)
	}
}

func TestClassifyProviderCode(t *testing.T) {
	raw := &providers.StatusError{Provider: "gemini", StatusCode: 418, Code: "RESOURCE_EXHAUSTED"}
	classified := Classify(raw, "gemini")
	if classified.Kind != KindRateLimited {
		t.Fatalf("kind = %s, want %s", classified.Kind, KindRateLimited)
	}
	if !contains(classified.Hint, "quota") {
		t.Fatalf("hint %q should mention quota", classified.Hint)
	}
	if classified.Details.Code != "RESOURCE_EXHAUSTED" {
		t.Fatalf("details code = %q", classified.Details.Code)
	}
}

func TestClassifyMessageKeywords(t *testing.T) {
	cases := []struct {
		message  string
		wantKind Kind
	}{
		{"Resource has been exhausted (e.g. check quota).", KindRateLimited},
		{"Too Many Requests, slow down", KindRateLimited},
		{"Incorrect API key provided", KindAuthFailed},
		{"this model's maximum context length is 8192 tokens", KindInvalidInput},
		{"prompt is too long: 210000 tokens", KindInvalidInput},
		{"response blocked by content policy", KindBackendFailed},
		{"the model is overloaded, please try again", KindBackendFailed},
		{"upstream connection reset by peer", KindBackendFailed},
	}
	for _, tc := range cases {
		classified := Classify(errors.New(tc.message), "openai")
		if classified.Kind != tc.wantKind {
			t.Fatalf("%q: kind = %s, want %s", tc.message, classified.Kind, tc.wantKind)
		}
	}
}

func TestClassifyStatusBeatsKeywords(t *testing.T) {
	raw := &providers.StatusError{
		Provider:   "openai",
		StatusCode: 500,
		Message:    "quota exceeded while processing",
	}
	classified := Classify(raw, "openai")
	if classified.Kind != KindBackendFailed {
		t.Fatalf("kind = %s, want %s (status rule outranks keywords)", classified.Kind, KindBackendFailed)
	}
}

func TestClassifyFallbackKeepsRawMessage(t *testing.T) {
	raw := errors.New("something deeply strange happened")
	classified := Classify(raw, "openai")
	if classified.Kind != KindBackendFailed {
		t.Fatalf("kind = %s, want %s", classified.Kind, KindBackendFailed)
	}
	if classified.Message != raw.Error() {
		t.Fatalf("fallback message = %q, want raw text", classified.Message)
	}
	if !errors.Is(classified, raw) {
		t.Fatal("fallback should keep the cause in the chain")
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	first := Classify(errors.New("quota reached"), "openai")
	second := Classify(fmt.Errorf("wrapped: %w", first), "anthropic")
	if second != first {
		t.Fatal("already classified error should pass through unchanged")
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil, "openai") != nil {
		t.Fatal("nil input should classify to nil")
	}
}

func TestClassifyCarriesRetryAfter(t *testing.T) {
	raw := &providers.StatusError{Provider: "openai", StatusCode: 429, RetryAfter: 3 * time.Second}
	classified := Classify(raw, "openai")
	if classified.RetryAfter != 3*time.Second {
		t.Fatalf("retry after = %s, want 3s", classified.RetryAfter)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  *ClassifiedError
		want bool
	}{
		{"auth never", New(KindAuthFailed, "openai", "bad key", ""), false},
		{"invalid input never", New(KindInvalidInput, "openai", "too long", ""), false},
		{"rate limited always", New(KindRateLimited, "openai", "slow down", ""), true},
		{"backend with transient status", Classify(&providers.StatusError{StatusCode: 503}, "openai"), true},
		{"backend without status", New(KindBackendFailed, "openai", "strange", ""), false},
		{"timeout", New(KindTimeout, "openai", "budget exhausted", ""), false},
	}
	for _, tc := range cases {
		if got := tc.err.Retryable(); got != tc.want {
			t.Fatalf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if kind, ok := ParseKind("rate_limited"); !ok || kind != KindRateLimited {
		t.Fatalf("ParseKind(rate_limited) = %s, %v", kind, ok)
	}
	if _, ok := ParseKind("mystery"); ok {
		t.Fatal("unknown kind should not parse")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
