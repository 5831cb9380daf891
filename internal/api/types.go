package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RefineOutcome is the transport form of a prompt refinement.
type RefineOutcome struct {
	Refined      string   `json:"refined"`
	Notes        []string `json:"notes,omitempty"`
	UsedFallback bool     `json:"usedFallback"`
}

// ScoreOutcome is the transport form of a prompt quality score.
type ScoreOutcome struct {
	Total        int            `json:"total"`
	Axes         map[string]int `json:"axes"`
	Advice       []string       `json:"advice,omitempty"`
	UsedFallback bool           `json:"usedFallback"`
}

// ClassifyOutcome is the transport form of a format classification.
type ClassifyOutcome struct {
	Format       string  `json:"format"`
	Confidence   float64 `json:"confidence"`
	UsedFallback bool    `json:"usedFallback"`
}

// RequestStats aggregates provider call counters over the daemon lifetime.
type RequestStats struct {
	Attempts       int64 `json:"attempts"`
	Retries        int64 `json:"retries"`
	Successes      int64 `json:"successes"`
	Failures       int64 `json:"failures"`
	ParseFallbacks int64 `json:"parseFallbacks"`
}

// CheckResult reports one preflight check in transport form.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running    bool          `json:"running"`
	PID        int           `json:"pid"`
	SessionID  string        `json:"sessionId,omitempty"`
	StartedAt  string        `json:"startedAt,omitempty"`
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	LockPath   string        `json:"lockFilePath"`
	SocketPath string        `json:"socketPath"`
	LogPath    string        `json:"logPath"`
	LastError  string        `json:"lastError,omitempty"`
	Requests   RequestStats  `json:"requests"`
	Checks     []CheckResult `json:"checks,omitempty"`
}
