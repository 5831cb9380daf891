package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"whetstone/internal/llmerr"
	"whetstone/internal/providers"
	"whetstone/internal/services"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		TotalTimeout: 2 * time.Minute,
	}
}

func zeroRandom() float64 { return 0 }

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	for _, failures := range []int{0, 1, 2} {
		sleeper := &sleepRecorder{}
		engine := NewEngine("openai", testPolicy(), nil,
			WithSleeper(sleeper.sleep), WithRandom(zeroRandom))

		calls := 0
		op := func(context.Context) (string, error) {
			calls++
			if calls <= failures {
				return "", &providers.StatusError{Provider: "openai", StatusCode: 503}
			}
			return "refined prompt", nil
		}

		text, err := engine.Execute(context.Background(), op)
		if err != nil {
			t.Fatalf("failures=%d: Execute returned error: %v", failures, err)
		}
		if text != "refined prompt" {
			t.Fatalf("failures=%d: text = %q", failures, text)
		}
		if calls != failures+1 {
			t.Fatalf("failures=%d: op ran %d times, want %d", failures, calls, failures+1)
		}
		if len(sleeper.delays) != failures {
			t.Fatalf("failures=%d: slept %d times, want %d", failures, len(sleeper.delays), failures)
		}
	}
}

func TestExecuteAuthFailureNotRetried(t *testing.T) {
	sleeper := &sleepRecorder{}
	engine := NewEngine("anthropic", testPolicy(), nil, WithSleeper(sleeper.sleep))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", &providers.StatusError{Provider: "anthropic", StatusCode: 401}
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if classified.Kind != llmerr.KindAuthFailed {
		t.Fatalf("kind = %s, want %s", classified.Kind, llmerr.KindAuthFailed)
	}
	if !errors.Is(err, services.ErrAuth) {
		t.Fatal("auth marker missing from chain")
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("auth failure should not back off, slept %d times", len(sleeper.delays))
	}
}

func TestExecuteInvalidInputNotRetried(t *testing.T) {
	engine := NewEngine("openai", testPolicy(), nil, WithSleeper((&sleepRecorder{}).sleep))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", errors.New("this model's maximum context length is 8192 tokens")
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestExecuteExhaustsAttemptBudget(t *testing.T) {
	sleeper := &sleepRecorder{}
	policy := testPolicy()
	engine := NewEngine("openai", policy, nil,
		WithSleeper(sleeper.sleep), WithRandom(zeroRandom))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", &providers.StatusError{Provider: "openai", StatusCode: 502}
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != policy.MaxRetries+1 {
		t.Fatalf("op ran %d times, want %d", calls, policy.MaxRetries+1)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindBackendFailed {
		t.Fatalf("expected BACKEND_FAILED after exhaustion, got %v", err)
	}
	if len(sleeper.delays) != policy.MaxRetries {
		t.Fatalf("slept %d times, want %d", len(sleeper.delays), policy.MaxRetries)
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
	for _, random := range []float64{0, 0.5, 0.999999} {
		r := random
		engine := NewEngine("openai", policy, nil, WithRandom(func() float64 { return r }))
		for attempt := 0; attempt < 12; attempt++ {
			capped := policy.MaxDelay
			if shifted := policy.BaseDelay << uint(attempt); shifted > 0 && shifted < capped {
				capped = shifted
			}
			delay := engine.backoffDelay(attempt)
			if delay > capped {
				t.Fatalf("attempt %d random %v: delay %s exceeds cap %s", attempt, random, delay, capped)
			}
			if delay < capped/2 {
				t.Fatalf("attempt %d random %v: delay %s below floor %s", attempt, random, delay, capped/2)
			}
		}
	}
}

func TestExecuteTerminatesInsteadOfSleepingPastBudget(t *testing.T) {
	sleeper := &sleepRecorder{}
	policy := RetryPolicy{
		MaxRetries:   3,
		BaseDelay:    2 * time.Second,
		MaxDelay:     2 * time.Second,
		TotalTimeout: time.Second,
	}
	engine := NewEngine("openai", policy, nil,
		WithSleeper(sleeper.sleep), WithRandom(zeroRandom))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", &providers.StatusError{Provider: "openai", StatusCode: 503}
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("should not sleep past the budget, slept %d times", len(sleeper.delays))
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if classified.Message != "total retry timeout exceeded" {
		t.Fatalf("message = %q", classified.Message)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatal("timeout marker missing from chain")
	}
}

func TestExecuteEmptyOutputIsFailure(t *testing.T) {
	engine := NewEngine("openai", testPolicy(), nil, WithSleeper((&sleepRecorder{}).sleep))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "   \n", nil
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindBackendFailed {
		t.Fatalf("expected BACKEND_FAILED for empty output, got %v", err)
	}
}

func TestExecuteCanceledBeforeStart(t *testing.T) {
	engine := NewEngine("openai", testPolicy(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := engine.Execute(ctx, func(context.Context) (string, error) {
		calls++
		return "text", nil
	})
	if calls != 0 {
		t.Fatalf("op ran %d times on canceled context", calls)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindTimeout {
		t.Fatalf("expected TIMEOUT kind for cancellation, got %v", err)
	}
}

func TestExecuteCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := NewEngine("openai", testPolicy(), nil,
		WithSleeper(func(sleepCtx context.Context, _ time.Duration) error {
			cancel()
			return sleepCtx.Err()
		}),
		WithRandom(zeroRandom))

	backendErr := &providers.StatusError{Provider: "openai", StatusCode: 503}
	_, err := engine.Execute(ctx, func(context.Context) (string, error) {
		return "", backendErr
	})

	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindTimeout {
		t.Fatalf("expected TIMEOUT after aborted backoff, got %v", err)
	}
	if errors.Is(err, backendErr) {
		t.Fatal("aborted backoff must not surface the backend error")
	}
}

func TestExecuteAttemptTimeoutIsTerminal(t *testing.T) {
	engine := NewEngine("openai", testPolicy(), nil, WithSleeper((&sleepRecorder{}).sleep))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("do request: %w", context.DeadlineExceeded)
	}

	_, err := engine.Execute(context.Background(), op)
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
	var classified *llmerr.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != llmerr.KindTimeout {
		t.Fatalf("expected TIMEOUT for attempt deadline, got %v", err)
	}
}

func TestExecuteHonorsRetryAfterHint(t *testing.T) {
	sleeper := &sleepRecorder{}
	policy := RetryPolicy{
		MaxRetries:   1,
		BaseDelay:    time.Millisecond,
		MaxDelay:     8 * time.Second,
		TotalTimeout: 2 * time.Minute,
	}
	engine := NewEngine("openai", policy, nil,
		WithSleeper(sleeper.sleep), WithRandom(zeroRandom))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &providers.StatusError{Provider: "openai", StatusCode: 429, RetryAfter: 5 * time.Second}
		}
		return "done", nil
	}

	if _, err := engine.Execute(context.Background(), op); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(sleeper.delays) != 1 {
		t.Fatalf("slept %d times, want 1", len(sleeper.delays))
	}
	if sleeper.delays[0] != 5*time.Second {
		t.Fatalf("delay = %s, want the Retry-After hint", sleeper.delays[0])
	}
}

func TestExecuteObserverSeesOneTerminalOutcome(t *testing.T) {
	var outcomes []AttemptOutcome
	engine := NewEngine("openai", testPolicy(), nil,
		WithSleeper((&sleepRecorder{}).sleep),
		WithRandom(zeroRandom),
		WithAttemptObserver(func(o AttemptOutcome) { outcomes = append(outcomes, o) }))

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &providers.StatusError{Provider: "openai", StatusCode: 500}
		}
		return "ok", nil
	}

	if _, err := engine.Execute(context.Background(), op); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("observed %d outcomes, want 3", len(outcomes))
	}
	for i, outcome := range outcomes[:2] {
		if outcome.Kind != OutcomeRetry {
			t.Fatalf("outcome %d = %s, want retry", i, outcome.Kind)
		}
		if outcome.Delay <= 0 {
			t.Fatalf("outcome %d has no delay", i)
		}
	}
	last := outcomes[2]
	if last.Kind != OutcomeSuccess || last.Text != "ok" {
		t.Fatalf("terminal outcome = %+v", last)
	}
}
