package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whetstone/internal/config"
	"whetstone/internal/daemon"
	"whetstone/internal/ipc"
	"whetstone/internal/logging"
	"whetstone/internal/refine"
	"whetstone/internal/testsupport"
)

// stubOperations returns canned results so CLI tests never reach a provider.
type stubOperations struct {
	refineRes   *refine.RefineResult
	scoreRes    *refine.ScoreResult
	classifyRes *refine.ClassifyResult
	refineErr   error
	scoreErr    error
	classifyErr error
}

func (s *stubOperations) RefinePrompt(ctx context.Context, prompt string) (*refine.RefineResult, error) {
	return s.refineRes, s.refineErr
}

func (s *stubOperations) ScorePrompt(ctx context.Context, prompt string) (*refine.ScoreResult, error) {
	return s.scoreRes, s.scoreErr
}

func (s *stubOperations) ClassifyFormat(ctx context.Context, text string) (*refine.ClassifyResult, error) {
	return s.classifyRes, s.classifyErr
}

func defaultStubOperations() *stubOperations {
	return &stubOperations{
		refineRes: &refine.RefineResult{
			Refined: "Write a haiku about rain in April.",
			Notes:   []string{"named the poetic form", "anchored the season"},
		},
		scoreRes: &refine.ScoreResult{
			Total:  80,
			Axes:   map[string]int{"clarity": 85, "specificity": 75, "completeness": 80},
			Advice: []string{"State the desired output length."},
		},
		classifyRes: &refine.ClassifyResult{Format: "json", Confidence: 0.93},
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	ops        *stubOperations
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
	logPath    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	logPath := filepath.Join(cfg.Paths.LogDir, "whetstone-test.log")
	testsupport.WriteLog(t, logPath)

	configPath := filepath.Join(homeDir, ".config", "whetstone", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	ops := defaultStubOperations()
	logger := logging.NewNop()
	d, err := daemon.New(cfg, ops, logger, logPath, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			cancel()
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		ops:        ops,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

// startDaemon begins accepting operations, as `whetstone start` would. Tests
// of the start command itself leave the daemon stopped and drive it over RPC.
func (env *cliTestEnv) startDaemon(t *testing.T) {
	t.Helper()
	if err := env.daemon.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\n\n[llm]\nprovider = %q\napi_key = %q\nmodel = %q\n",
		cfg.Paths.LogDir,
		cfg.LLM.Provider,
		cfg.LLM.APIKey,
		cfg.LLM.Model,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
