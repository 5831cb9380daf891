package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-3-5-haiku-latest"
	anthropicDefaultTimeout = 60 * time.Second
	anthropicAPIVersion     = "2023-06-01"
)

type anthropic struct {
	cfg        Config
	httpClient *http.Client
}

func newAnthropic(cfg Config, client *http.Client) *anthropic {
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	return &anthropic{cfg: cfg, httpClient: client}
}

func (a *anthropic) Name() string { return NameAnthropic }

func (a *anthropic) DefaultTimeout() time.Duration { return anthropicDefaultTimeout }

type anthropicMessageRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Error      *anthropicErrorEnvelope `json:"error"`
}

type anthropicErrorEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (a *anthropic) BuildRequest(prompt string, maxTokens int) (*http.Request, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic request: missing credential (set %s)", credentialEnvVars[NameAnthropic])
	}
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}
	endpoint, err := url.JoinPath(a.cfg.BaseURL, "v1", "messages")
	if err != nil {
		return nil, fmt.Errorf("anthropic request: build url: %w", err)
	}
	payload := anthropicMessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: encode body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("anthropic request: new request: %w", err)
	}
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *anthropic) Invoke(ctx context.Context, req *http.Request) ([]byte, error) {
	return invoke(ctx, a.httpClient, req, NameAnthropic, parseAnthropicEnvelope)
}

func (a *anthropic) ExtractText(body []byte) (string, error) {
	var completion anthropicMessageResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("anthropic response: decode: %w", err)
	}
	if completion.Error != nil {
		return "", errors.New("anthropic response: api error: " + completion.Error.Message)
	}
	for _, block := range completion.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		if content := firstNonEmpty(block.Text); content != "" {
			return content, nil
		}
	}
	return "", &EmptyContentError{
		Provider:     NameAnthropic,
		FinishReason: completion.StopReason,
		Snippet:      summarizeSnippet(string(body)),
	}
}

func parseAnthropicEnvelope(body []byte) (string, string) {
	var envelope struct {
		Error *anthropicErrorEnvelope `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	return envelope.Error.Type, envelope.Error.Message
}
