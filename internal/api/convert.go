package api

import (
	"time"

	"whetstone/internal/preflight"
	"whetstone/internal/refine"
)

// FromRefineResult converts an operation result to its wire form.
func FromRefineResult(result *refine.RefineResult) RefineOutcome {
	if result == nil {
		return RefineOutcome{}
	}
	return RefineOutcome{
		Refined:      result.Refined,
		Notes:        append([]string(nil), result.Notes...),
		UsedFallback: result.UsedFallback,
	}
}

// FromScoreResult converts an operation result to its wire form.
func FromScoreResult(result *refine.ScoreResult) ScoreOutcome {
	if result == nil {
		return ScoreOutcome{}
	}
	axes := make(map[string]int, len(result.Axes))
	for axis, value := range result.Axes {
		axes[axis] = value
	}
	return ScoreOutcome{
		Total:        result.Total,
		Axes:         axes,
		Advice:       append([]string(nil), result.Advice...),
		UsedFallback: result.UsedFallback,
	}
}

// FromClassifyResult converts an operation result to its wire form.
func FromClassifyResult(result *refine.ClassifyResult) ClassifyOutcome {
	if result == nil {
		return ClassifyOutcome{}
	}
	return ClassifyOutcome{
		Format:       result.Format,
		Confidence:   result.Confidence,
		UsedFallback: result.UsedFallback,
	}
}

// FromCheckResults converts preflight results to their wire form.
func FromCheckResults(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	converted := make([]CheckResult, 0, len(results))
	for _, result := range results {
		converted = append(converted, CheckResult{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return converted
}

// FormatTime renders a timestamp for API payloads, empty for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
