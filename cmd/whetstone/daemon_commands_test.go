package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"whetstone/internal/ipc"
)

func TestDaemonStartAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	// Stop is not exercised against the live socket here: the daemon shares the
	// test process, and StopAndTerminate would refuse to kill its own pid.
	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "Daemon already running")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Running")
	requireContains(t, out, "openai")
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "== Requests ==")
	requireContains(t, out, "Attempts")
}

func TestDaemonStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)
	deadSocket := filepath.Join(env.cfg.Paths.LogDir, "missing.sock")

	out, _, err := runCLI(t, []string{"status"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running (run `whetstone start`)")
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Daemon offline; request counters unavailable")
}

func TestDaemonStatusOfflineJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	deadSocket := filepath.Join(env.cfg.Paths.LogDir, "missing.sock")

	out, _, err := runCLI(t, []string{"--json", "status"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}

	var status ipc.StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if status.Running {
		t.Fatal("expected offline status")
	}
	if status.Provider != "openai" {
		t.Fatalf("expected provider fallback from config, got %q", status.Provider)
	}
	if status.SocketPath != deadSocket {
		t.Fatalf("expected socket path %q, got %q", deadSocket, status.SocketPath)
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected local preflight checks in offline status")
	}
}

func TestDaemonStopNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	deadSocket := filepath.Join(env.cfg.Paths.LogDir, "missing.sock")

	out, _, err := runCLI(t, []string{"stop"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}
