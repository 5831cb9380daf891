package api

import (
	"errors"

	"whetstone/internal/llmerr"
	"whetstone/internal/services"
)

// KindParseFailed tags failures where the model's output never yielded valid
// JSON. It extends the classifier taxonomy on the wire only.
const KindParseFailed = "PARSE_FAILED"

// ErrorInfo is the wire form of an operation failure. Responses carry it in
// place of an RPC error string so kind, hint, and safe details survive the
// socket crossing.
type ErrorInfo struct {
	Kind     string `json:"kind"`
	Provider string `json:"provider,omitempty"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
	Status   int    `json:"status,omitempty"`
	Code     string `json:"code,omitempty"`
}

// FromError converts a failure into its wire form. Classified errors keep
// their full shape; anything else degrades to a kind guess plus the message.
func FromError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var classified *llmerr.ClassifiedError
	if errors.As(err, &classified) {
		return &ErrorInfo{
			Kind:     string(classified.Kind),
			Provider: classified.Provider,
			Message:  classified.Message,
			Hint:     classified.Hint,
			Status:   classified.Details.Status,
			Code:     classified.Details.Code,
		}
	}
	info := &ErrorInfo{Message: err.Error()}
	switch {
	case errors.Is(err, services.ErrParse):
		info.Kind = KindParseFailed
		info.Hint = "rephrase the request or retry; the model did not return usable JSON"
	case errors.Is(err, services.ErrInvalidInput):
		info.Kind = string(llmerr.KindInvalidInput)
	case errors.Is(err, services.ErrConfiguration):
		info.Kind = "CONFIGURATION"
	case errors.Is(err, services.ErrTimeout):
		info.Kind = string(llmerr.KindTimeout)
	case errors.Is(err, services.ErrRateLimited):
		info.Kind = string(llmerr.KindRateLimited)
	case errors.Is(err, services.ErrAuth):
		info.Kind = string(llmerr.KindAuthFailed)
	case errors.Is(err, services.ErrBackend):
		info.Kind = string(llmerr.KindBackendFailed)
	}
	return info
}

// AsError rebuilds a Go error from the wire form so callers can branch with
// errors.Is against the taxonomy markers again.
func (e *ErrorInfo) AsError() error {
	if e == nil {
		return nil
	}
	if kind, ok := llmerr.ParseKind(e.Kind); ok {
		rebuilt := llmerr.New(kind, e.Provider, e.Message, e.Hint)
		rebuilt.Details = llmerr.Details{Status: e.Status, Code: e.Code}
		return rebuilt
	}
	switch e.Kind {
	case KindParseFailed:
		return services.Wrap(services.ErrParse, "ipc", "", e.Message, nil)
	case "CONFIGURATION":
		return services.Wrap(services.ErrConfiguration, "ipc", "", e.Message, nil)
	default:
		return errors.New(e.Message)
	}
}
