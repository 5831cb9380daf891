package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"whetstone/internal/config"
	"whetstone/internal/daemon"
	"whetstone/internal/ipc"
	"whetstone/internal/llm"
	"whetstone/internal/logging"
	"whetstone/internal/preflight"
	"whetstone/internal/providers"
	"whetstone/internal/refine"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the whetstone daemon runtime loop. It owns the per-run log
// file, the pid file, the IPC socket, and the daemon lifecycle, and blocks
// until the context is cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("whetstone-%s.log", runID))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logProviderSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update whetstone.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "whetstone-*.log", logPath)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	for _, check := range preflight.RunAll(cfg) {
		if check.Passed {
			continue
		}
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_check_failed"),
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldImpact, "requests may fail until resolved"),
		)
	}

	stats := daemon.NewStats()
	client := llm.New(cfg, logger, llm.WithEngineOptions(llm.WithAttemptObserver(stats.ObserveAttempt)))
	ops := refine.NewService(client, logger)

	d, err := daemon.New(cfg, ops, logger, logPath, stats)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check log directory permissions and whether another instance holds the lock"),
			logging.String(logging.FieldImpact, "daemon cannot accept requests"),
		)
	}

	<-signalCtx.Done()
	logger.Info("whetstone daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "whetstone.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// logProviderSnapshot records the backend the daemon will talk to and the
// retry budget in force, so a log reader can tell how the run was configured
// without opening the config file. The credential itself is never logged.
func logProviderSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	llmCfg := cfg.GetLLM()
	retry := cfg.GetRetry()
	credentialPresent := llmCfg.APIKey != ""
	if !credentialPresent {
		if envVar := providers.CredentialEnvVar(llmCfg.Provider); envVar != "" {
			credentialPresent = strings.TrimSpace(os.Getenv(envVar)) != ""
		}
	}
	logger.Info("provider snapshot",
		logging.String(logging.FieldEventType, "provider_snapshot"),
		logging.String(logging.FieldProvider, llmCfg.Provider),
		logging.String("model", llmCfg.Model),
		logging.Bool("credential_present", credentialPresent),
		logging.Duration("request_timeout", llmCfg.Timeout),
		logging.Int("max_retries", retry.MaxRetries),
		logging.Duration("retry_total_timeout", retry.TotalTimeout),
	)
}
