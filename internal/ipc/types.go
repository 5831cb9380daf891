package ipc

import "whetstone/internal/api"

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse acknowledges a ping.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// StartRequest asks the daemon to begin accepting operations.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop accepting operations.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches the daemon runtime snapshot.
type StatusRequest struct{}

// StatusResponse mirrors the shared daemon status DTO.
type StatusResponse = api.DaemonStatus

// RefineRequest rewrites a rough prompt.
type RefineRequest struct {
	Prompt string `json:"prompt"`
}

// RefineResponse carries the refinement or its failure.
type RefineResponse struct {
	Result api.RefineOutcome `json:"result"`
	Error  *api.ErrorInfo    `json:"error,omitempty"`
}

// ScoreRequest grades a prompt.
type ScoreRequest struct {
	Prompt string `json:"prompt"`
}

// ScoreResponse carries the score or its failure.
type ScoreResponse struct {
	Result api.ScoreOutcome `json:"result"`
	Error  *api.ErrorInfo   `json:"error,omitempty"`
}

// ClassifyRequest labels a text's dominant format.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse carries the classification or its failure.
type ClassifyResponse struct {
	Result api.ClassifyOutcome `json:"result"`
	Error  *api.ErrorInfo      `json:"error,omitempty"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
