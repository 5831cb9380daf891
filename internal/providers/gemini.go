package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"
	geminiDefaultModel   = "gemini-2.0-flash"
	geminiDefaultTimeout = 30 * time.Second
)

type gemini struct {
	cfg        Config
	httpClient *http.Client
}

func newGemini(cfg Config, client *http.Client) *gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	return &gemini{cfg: cfg, httpClient: client}
}

func (a *gemini) Name() string { return NameGemini }

func (a *gemini) DefaultTimeout() time.Duration { return geminiDefaultTimeout }

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *geminiErrorEnvelope `json:"error"`
}

type geminiErrorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (a *gemini) BuildRequest(prompt string, maxTokens int) (*http.Request, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini request: missing credential (set %s)", credentialEnvVars[NameGemini])
	}
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}
	endpoint, err := url.JoinPath(a.cfg.BaseURL, "v1beta", "models", a.cfg.Model+":generateContent")
	if err != nil {
		return nil, fmt.Errorf("gemini request: build url: %w", err)
	}
	payload := geminiGenerateRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: maxTokens},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *gemini) Invoke(ctx context.Context, req *http.Request) ([]byte, error) {
	return invoke(ctx, a.httpClient, req, NameGemini, parseGeminiEnvelope)
}

// ExtractText surfaces safety-filtered completions as failures. A candidate
// suppressed by the policy filter returns no parts, and treating that as an
// empty success would hand callers a blank result.
func (a *gemini) ExtractText(body []byte) (string, error) {
	var completion geminiGenerateResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("gemini response: decode: %w", err)
	}
	if completion.Error != nil {
		return "", errors.New("gemini response: api error: " + completion.Error.Message)
	}
	if completion.PromptFeedback != nil && completion.PromptFeedback.BlockReason != "" {
		return "", &SafetyBlockedError{Provider: NameGemini, Reason: "prompt blocked: " + completion.PromptFeedback.BlockReason}
	}
	var finishReason string
	for _, candidate := range completion.Candidates {
		if finishReason == "" {
			finishReason = candidate.FinishReason
		}
		if strings.EqualFold(candidate.FinishReason, "SAFETY") {
			return "", &SafetyBlockedError{Provider: NameGemini, Reason: "candidate finish reason SAFETY"}
		}
		for _, part := range candidate.Content.Parts {
			if content := firstNonEmpty(part.Text); content != "" {
				return content, nil
			}
		}
	}
	return "", &EmptyContentError{
		Provider:     NameGemini,
		FinishReason: finishReason,
		Snippet:      summarizeSnippet(string(body)),
	}
}

func parseGeminiEnvelope(body []byte) (string, string) {
	var envelope struct {
		Error *geminiErrorEnvelope `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	return envelope.Error.Status, envelope.Error.Message
}
