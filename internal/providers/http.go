package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// envelopeParser extracts (code, message) from a provider error body. Parsers
// return empty strings when the body does not match the provider's envelope.
type envelopeParser func(body []byte) (code, message string)

// invoke performs one provider call and normalizes failures. The context
// carries the combined caller/timeout cancellation, so the transport itself
// has no deadline of its own.
func invoke(ctx context.Context, client *http.Client, req *http.Request, provider string, parseEnvelope envelopeParser) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s request: http error: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s request: read body: %w", provider, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		code, message := "", strings.TrimSpace(string(body))
		if parseEnvelope != nil {
			if parsedCode, parsedMessage := parseEnvelope(body); parsedCode != "" || parsedMessage != "" {
				code = parsedCode
				if parsedMessage != "" {
					message = parsedMessage
				}
			}
		}
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    message,
			RetryAfter: retryAfter,
		}
	}

	return body, nil
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
