package daemon

import (
	"sync/atomic"

	"whetstone/internal/api"
	"whetstone/internal/llm"
)

// Stats accumulates request counters across a daemon run. The engine's
// attempt observer feeds the attempt-level counters; the dispatch layer
// feeds the fallback counter.
type Stats struct {
	attempts       atomic.Int64
	retries        atomic.Int64
	successes      atomic.Int64
	failures       atomic.Int64
	parseFallbacks atomic.Int64
}

// NewStats returns a zeroed counter set.
func NewStats() *Stats {
	return &Stats{}
}

// ObserveAttempt records one retry-loop outcome. Wire it into the engine
// with llm.WithAttemptObserver.
func (s *Stats) ObserveAttempt(outcome llm.AttemptOutcome) {
	s.attempts.Add(1)
	switch outcome.Kind {
	case llm.OutcomeSuccess:
		s.successes.Add(1)
	case llm.OutcomeRetry:
		s.retries.Add(1)
	case llm.OutcomeFail:
		s.failures.Add(1)
	}
}

func (s *Stats) observeParseFallback() {
	s.parseFallbacks.Add(1)
}

// Snapshot returns the current counters in transport form.
func (s *Stats) Snapshot() api.RequestStats {
	return api.RequestStats{
		Attempts:       s.attempts.Load(),
		Retries:        s.retries.Load(),
		Successes:      s.successes.Load(),
		Failures:       s.failures.Load(),
		ParseFallbacks: s.parseFallbacks.Load(),
	}
}
