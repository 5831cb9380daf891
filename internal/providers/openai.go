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
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o-mini"
	openAIDefaultTimeout = 30 * time.Second
)

// openAI speaks the chat-completions dialect shared by OpenAI and the
// compatible gateways reachable through base_url overrides.
type openAI struct {
	cfg        Config
	httpClient *http.Client
}

func newOpenAI(cfg Config, client *http.Client) *openAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	return &openAI{cfg: cfg, httpClient: client}
}

func (a *openAI) Name() string { return NameOpenAI }

func (a *openAI) DefaultTimeout() time.Duration { return openAIDefaultTimeout }

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Some gateways return the streaming schema even when stream=false,
		// so tolerate it as a fallback.
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIErrorEnvelope `json:"error"`
}

type openAIErrorEnvelope struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (a *openAI) BuildRequest(prompt string, maxTokens int) (*http.Request, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("openai request: missing credential (set %s)", credentialEnvVars[NameOpenAI])
	}
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}
	endpoint, err := url.JoinPath(a.cfg.BaseURL, "chat", "completions")
	if err != nil {
		return nil, fmt.Errorf("openai request: build url: %w", err)
	}
	payload := openAIChatRequest{
		Model:     a.cfg.Model,
		Messages:  []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai request: encode body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("openai request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *openAI) Invoke(ctx context.Context, req *http.Request) ([]byte, error) {
	return invoke(ctx, a.httpClient, req, NameOpenAI, parseOpenAIEnvelope)
}

func (a *openAI) ExtractText(body []byte) (string, error) {
	var completion openAIChatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("openai response: decode: %w", err)
	}
	if completion.Error != nil {
		return "", errors.New("openai response: api error: " + completion.Error.Message)
	}
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = choice.FinishReason
		}
		if choice.Message.Refusal != "" {
			return "", &SafetyBlockedError{Provider: NameOpenAI, Reason: summarizeSnippet(choice.Message.Refusal)}
		}
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, nil
		}
	}
	return "", &EmptyContentError{
		Provider:     NameOpenAI,
		FinishReason: finishReason,
		Snippet:      summarizeSnippet(string(body)),
	}
}

func parseOpenAIEnvelope(body []byte) (string, string) {
	var envelope struct {
		Error *openAIErrorEnvelope `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	code := ""
	switch v := envelope.Error.Code.(type) {
	case string:
		code = v
	case float64:
		code = fmt.Sprintf("%d", int(v))
	}
	if code == "" {
		code = envelope.Error.Type
	}
	return code, envelope.Error.Message
}
