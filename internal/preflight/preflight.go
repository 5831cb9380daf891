package preflight

import (
	"whetstone/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config. The checks
// are local (filesystem and configuration); none of them spends provider
// tokens, so status paths can run them on every call.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckProvider(cfg),
		CheckCredential(cfg),
	}
	return results
}

// Ready reports whether every result passed.
func Ready(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
