package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"whetstone/internal/api"
	"whetstone/internal/logging"
	"whetstone/internal/refine"
	"whetstone/internal/services"
	"whetstone/internal/testsupport"
)

type stubOps struct {
	mu       sync.Mutex
	requests []string
	sessions []string

	refineRes   *refine.RefineResult
	scoreRes    *refine.ScoreResult
	classifyRes *refine.ClassifyResult
	err         error
	block       bool
}

func (s *stubOps) record(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := services.RequestIDFromContext(ctx); ok {
		s.requests = append(s.requests, id)
	}
	if id, ok := services.SessionIDFromContext(ctx); ok {
		s.sessions = append(s.sessions, id)
	}
}

func (s *stubOps) wait(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func (s *stubOps) RefinePrompt(ctx context.Context, prompt string) (*refine.RefineResult, error) {
	s.record(ctx)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.refineRes, nil
}

func (s *stubOps) ScorePrompt(ctx context.Context, prompt string) (*refine.ScoreResult, error) {
	s.record(ctx)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.scoreRes, nil
}

func (s *stubOps) ClassifyFormat(ctx context.Context, text string) (*refine.ClassifyResult, error) {
	s.record(ctx)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.classifyRes, nil
}

func testDaemon(t *testing.T, ops Operations) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	d, err := New(cfg, ops, logging.NewNop(), cfg.DaemonLogPath(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestStartStopLifecycle(t *testing.T) {
	ops := &stubOps{refineRes: &refine.RefineResult{Refined: "better"}}
	d := testDaemon(t, ops)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected running after Start")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped after Stop")
	}

	if _, err := d.Refine(context.Background(), "x"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning after Stop, got %v", err)
	}
}

func TestSecondInstanceBlockedByLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ops := &stubOps{}

	first, err := New(cfg, ops, logging.NewNop(), cfg.DaemonLogPath(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Close)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second, err := New(cfg, ops, logging.NewNop(), cfg.DaemonLogPath(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(second.Close)
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock to reject second instance")
	}
}

func TestDispatchTagsContext(t *testing.T) {
	ops := &stubOps{
		refineRes:   &refine.RefineResult{Refined: "better"},
		classifyRes: &refine.ClassifyResult{Format: "prose", Confidence: 0.8},
	}
	d := testDaemon(t, ops)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := d.Refine(context.Background(), "a"); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if _, err := d.Classify(context.Background(), "b"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if len(ops.requests) != 2 || ops.requests[0] == ops.requests[1] {
		t.Fatalf("expected distinct request IDs, got %v", ops.requests)
	}
	for _, session := range ops.sessions {
		if session != d.SessionID() {
			t.Fatalf("expected session %s, got %s", d.SessionID(), session)
		}
	}
}

func TestFallbackAndErrorAccounting(t *testing.T) {
	ops := &stubOps{
		refineRes: &refine.RefineResult{Refined: "better", UsedFallback: true},
	}
	d := testDaemon(t, ops)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := d.Refine(context.Background(), "a"); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if got := d.Stats().Snapshot().ParseFallbacks; got != 1 {
		t.Fatalf("expected 1 parse fallback, got %d", got)
	}

	ops.err = errors.New("credential rejected by provider")
	if _, err := d.Score(context.Background(), "b"); err == nil {
		t.Fatal("expected error to propagate")
	}
	if last := d.Status().LastError; last == "" {
		t.Fatal("expected status to record the failure")
	}
}

func TestStatusSnapshotFields(t *testing.T) {
	ops := &stubOps{}
	d := testDaemon(t, ops)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status()
	if status.PID <= 0 {
		t.Fatalf("expected pid, got %d", status.PID)
	}
	if status.Provider != "openai" {
		t.Fatalf("unexpected provider: %s", status.Provider)
	}
	if status.SocketPath == "" || status.LockPath == "" || status.LogPath == "" {
		t.Fatalf("expected paths in status: %+v", status)
	}
	if status.StartedAt == "" {
		t.Fatal("expected a start timestamp")
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected preflight checks in status")
	}
}

func TestStatusSurfacesFailedChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProvider("anthropic"), testsupport.WithAPIKey(""))
	t.Setenv("ANTHROPIC_API_KEY", "")

	d, err := New(cfg, &stubOps{}, logging.NewNop(), cfg.DaemonLogPath(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)

	status := d.Status()
	var credential *api.CheckResult
	for i := range status.Checks {
		if status.Checks[i].Name == "Credential" {
			credential = &status.Checks[i]
		}
	}
	if credential == nil {
		t.Fatal("expected a credential check in status")
	}
	if credential.Passed {
		t.Fatal("expected credential check to fail without a key")
	}
	if !strings.Contains(credential.Detail, "ANTHROPIC_API_KEY") {
		t.Fatalf("detail should name the env var: %s", credential.Detail)
	}
}

func TestStopAbortsInFlightOperations(t *testing.T) {
	ops := &stubOps{block: true}
	d := testDaemon(t, ops)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Refine(context.Background(), "long running")
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	d.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled operation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight operation did not abort on Stop")
	}
}
