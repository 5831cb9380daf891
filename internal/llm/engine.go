package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"whetstone/internal/llmerr"
	"whetstone/internal/logging"
)

// Operation performs one provider call under ctx and returns the produced text.
type Operation func(ctx context.Context) (string, error)

// OutcomeKind enumerates how a single attempt resolved.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetry
	OutcomeFail
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	default:
		return "fail"
	}
}

// AttemptOutcome records how one attempt of the retry loop resolved. Exactly
// one outcome is produced per attempt and a run always ends with a single
// success or fail.
type AttemptOutcome struct {
	Attempt int
	Kind    OutcomeKind
	Text    string
	Delay   time.Duration
	Err     *llmerr.ClassifiedError
	Elapsed time.Duration
}

// RetryPolicy bounds a retry run. MaxRetries counts additional attempts
// after the first, so a run makes at most MaxRetries+1 calls.
type RetryPolicy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	TotalTimeout time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Engine drives bounded-retry execution of provider calls. Failures are
// classified between attempts, retryable ones wait out an equal-jitter
// backoff, and the whole run stays inside one wall-clock budget.
type Engine struct {
	provider string
	policy   RetryPolicy
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	random   func() float64
	observer func(AttemptOutcome)
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithSleeper replaces the backoff sleep, letting tests run without waiting.
func WithSleeper(fn func(context.Context, time.Duration) error) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithRandom replaces the jitter source with a deterministic one.
func WithRandom(fn func() float64) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.random = fn
		}
	}
}

// WithAttemptObserver registers a callback invoked once per attempt outcome.
func WithAttemptObserver(fn func(AttemptOutcome)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// NewEngine builds an engine for the named provider.
func NewEngine(provider string, policy RetryPolicy, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		provider: provider,
		policy:   policy.normalized(),
		logger:   logger,
		sleep:    sleepContext,
		random:   rand.Float64,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Execute runs op until it returns usable text, a non-retryable failure
// occurs, the attempt budget runs out, or the total timeout expires. The
// returned error is always a *llmerr.ClassifiedError.
func (e *Engine) Execute(ctx context.Context, op Operation) (string, error) {
	start := time.Now()

	runCtx := ctx
	if e.policy.TotalTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.policy.TotalTimeout)
		defer cancel()
	}

	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		if e.policy.TotalTimeout > 0 && time.Since(start) >= e.policy.TotalTimeout {
			return "", e.failNow(attempt, totalTimeoutError(e.provider))
		}
		if runCtx.Err() != nil {
			return "", e.failNow(attempt, e.cancellationError(runCtx))
		}

		outcome := e.runAttempt(runCtx, attempt, start, op)
		e.observe(outcome)

		switch outcome.Kind {
		case OutcomeSuccess:
			e.logger.Debug("generation attempt succeeded",
				logging.Int(logging.FieldAttempt, outcome.Attempt),
				logging.Duration("elapsed", outcome.Elapsed),
			)
			return outcome.Text, nil
		case OutcomeFail:
			logging.ErrorWithContext(e.logger, "generation failed", "llm_request_failed",
				logging.Int(logging.FieldAttempt, outcome.Attempt),
				logging.String(logging.FieldProvider, e.provider),
				logging.String(logging.FieldErrorKind, string(outcome.Err.Kind)),
				logging.Error(outcome.Err),
				logging.String(logging.FieldErrorHint, outcome.Err.Hint),
			)
			return "", outcome.Err
		case OutcomeRetry:
			e.logger.Warn("generation attempt failed; retrying",
				logging.Int(logging.FieldAttempt, outcome.Attempt),
				logging.String(logging.FieldErrorKind, string(outcome.Err.Kind)),
				logging.Duration("delay", outcome.Delay),
				logging.Error(outcome.Err),
			)
			if err := e.sleep(runCtx, outcome.Delay); err != nil {
				// An abort during backoff surfaces as the deadline signal,
				// not as the backend error that triggered the wait.
				return "", e.failNow(attempt, e.cancellationError(runCtx))
			}
		}
	}

	// Unreachable under correct accounting: the final attempt either
	// succeeds or fails above.
	return "", llmerr.New(llmerr.KindBackendFailed, e.provider,
		"retry loop exhausted without a terminal outcome",
		"retry the request or check the logs for details")
}

func (e *Engine) runAttempt(ctx context.Context, attempt int, start time.Time, op Operation) AttemptOutcome {
	attemptStart := time.Now()
	text, err := op(ctx)
	elapsed := time.Since(attemptStart)

	if err == nil {
		if strings.TrimSpace(text) == "" {
			err = llmerr.New(llmerr.KindBackendFailed, e.provider,
				"model returned empty content",
				"retry the request or adjust the prompt")
		} else {
			return AttemptOutcome{Attempt: attempt, Kind: OutcomeSuccess, Text: text, Elapsed: elapsed}
		}
	}

	// Deadline and cancellation failures bypass classification so one
	// TIMEOUT signal reaches the caller no matter which attempt it hit.
	if ctx.Err() != nil {
		return AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Err: e.cancellationError(ctx), Elapsed: elapsed}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Elapsed: elapsed,
			Err: llmerr.New(llmerr.KindTimeout, e.provider,
				"provider call timed out",
				"increase timeout_seconds or simplify the request")}
	}
	if errors.Is(err, context.Canceled) {
		return AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Elapsed: elapsed,
			Err: llmerr.New(llmerr.KindTimeout, e.provider,
				"provider call canceled",
				"the request was aborted before completion")}
	}

	classified := llmerr.Classify(err, e.provider)
	if !classified.Retryable() || attempt == e.policy.MaxRetries {
		return AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Err: classified, Elapsed: elapsed}
	}

	delay := e.backoffDelay(attempt)
	if classified.RetryAfter > delay {
		delay = min(classified.RetryAfter, e.policy.MaxDelay)
	}
	if e.policy.TotalTimeout > 0 && time.Since(start)+delay > e.policy.TotalTimeout {
		return AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Err: totalTimeoutError(e.provider), Elapsed: elapsed}
	}
	return AttemptOutcome{Attempt: attempt, Kind: OutcomeRetry, Delay: delay, Err: classified, Elapsed: elapsed}
}

// backoffDelay computes the equal-jitter wait before the next attempt: the
// exponential value capped at MaxDelay, then drawn uniformly from the upper
// half of that range so delays stay randomized with a nonzero floor.
func (e *Engine) backoffDelay(attempt int) time.Duration {
	capped := e.policy.MaxDelay
	if attempt < 62 {
		if shifted := e.policy.BaseDelay << uint(attempt); shifted > 0 && shifted < capped {
			capped = shifted
		}
	}
	if capped <= 0 {
		return 0
	}
	half := capped / 2
	return half + time.Duration(e.random()*float64(capped-half))
}

func (e *Engine) failNow(attempt int, err *llmerr.ClassifiedError) *llmerr.ClassifiedError {
	e.observe(AttemptOutcome{Attempt: attempt, Kind: OutcomeFail, Err: err})
	logging.ErrorWithContext(e.logger, "generation failed", "llm_request_failed",
		logging.Int(logging.FieldAttempt, attempt),
		logging.String(logging.FieldProvider, e.provider),
		logging.String(logging.FieldErrorKind, string(err.Kind)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, err.Hint),
	)
	return err
}

func (e *Engine) observe(outcome AttemptOutcome) {
	if e.observer != nil {
		e.observer(outcome)
	}
}

func (e *Engine) cancellationError(ctx context.Context) *llmerr.ClassifiedError {
	if errors.Is(ctx.Err(), context.Canceled) {
		return llmerr.New(llmerr.KindTimeout, e.provider,
			"request canceled",
			"the request was aborted before completion")
	}
	return totalTimeoutError(e.provider)
}

func totalTimeoutError(provider string) *llmerr.ClassifiedError {
	return llmerr.New(llmerr.KindTimeout, provider,
		"total retry timeout exceeded",
		"increase total_timeout_ms or simplify the request")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
