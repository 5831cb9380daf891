package daemon

import (
	"context"

	"github.com/google/uuid"

	"whetstone/internal/refine"
	"whetstone/internal/services"
)

// runContext binds an operation to both the caller and the daemon run:
// cancellation of either aborts the work. The returned context carries the
// session ID and a fresh per-request correlation ID.
func (d *Daemon) runContext(parent context.Context) (context.Context, context.CancelFunc, error) {
	d.mu.Lock()
	runCtx := d.ctx
	d.mu.Unlock()
	if !d.running.Load() || runCtx == nil {
		return nil, nil, ErrNotRunning
	}

	ctx, cancel := context.WithCancel(parent)
	stopWatch := context.AfterFunc(runCtx, cancel)
	done := func() {
		stopWatch()
		cancel()
	}
	ctx = services.WithSessionID(ctx, d.sessionID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return ctx, done, nil
}

// Refine rewrites a rough prompt via the operations service.
func (d *Daemon) Refine(ctx context.Context, prompt string) (*refine.RefineResult, error) {
	opCtx, done, err := d.runContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	result, err := d.ops.RefinePrompt(opCtx, prompt)
	if err != nil {
		d.recordError(err)
		return nil, err
	}
	if result.UsedFallback {
		d.stats.observeParseFallback()
	}
	return result, nil
}

// Score grades a prompt via the operations service.
func (d *Daemon) Score(ctx context.Context, prompt string) (*refine.ScoreResult, error) {
	opCtx, done, err := d.runContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	result, err := d.ops.ScorePrompt(opCtx, prompt)
	if err != nil {
		d.recordError(err)
		return nil, err
	}
	if result.UsedFallback {
		d.stats.observeParseFallback()
	}
	return result, nil
}

// Classify labels a text's format via the operations service.
func (d *Daemon) Classify(ctx context.Context, text string) (*refine.ClassifyResult, error) {
	opCtx, done, err := d.runContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	result, err := d.ops.ClassifyFormat(opCtx, text)
	if err != nil {
		d.recordError(err)
		return nil, err
	}
	if result.UsedFallback {
		d.stats.observeParseFallback()
	}
	return result, nil
}
