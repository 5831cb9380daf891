package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"whetstone/internal/api"
	"whetstone/internal/config"
	"whetstone/internal/logging"
	"whetstone/internal/preflight"
	"whetstone/internal/refine"
)

// ErrNotRunning is returned when an operation arrives before Start or after
// Stop.
var ErrNotRunning = errors.New("daemon not running")

// Operations is the prompt-operation surface the daemon dispatches to.
// *refine.Service satisfies it.
type Operations interface {
	RefinePrompt(ctx context.Context, prompt string) (*refine.RefineResult, error)
	ScorePrompt(ctx context.Context, prompt string) (*refine.ScoreResult, error)
	ClassifyFormat(ctx context.Context, text string) (*refine.ClassifyResult, error)
}

// Daemon hosts the generation stack behind the IPC socket and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	ops       Operations
	stats     *Stats
	logPath   string
	sessionID string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	lastErr   string
}

// New constructs a daemon with initialized dependencies. A nil stats value
// gets a fresh counter set; passing one in lets the caller share it with the
// engine's attempt observer.
func New(cfg *config.Config, ops Operations, logger *slog.Logger, logPath string, stats *Stats) (*Daemon, error) {
	if cfg == nil || ops == nil {
		return nil, errors.New("daemon requires config and operations")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if stats == nil {
		stats = NewStats()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		ops:       ops,
		stats:     stats,
		logPath:   logPath,
		sessionID: uuid.NewString(),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and begins accepting operations.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another whetstone daemon instance is already running")
	}

	d.mu.Lock()
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.running.Store(true)
	d.logger.Info("whetstone daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldSessionID, d.sessionID),
	)
	return nil
}

// Stop aborts in-flight operations and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	d.mu.Unlock()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("whetstone daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() {
	d.Stop()
}

// LogPath returns the path to this run's log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// SessionID returns the identifier minted for this daemon process.
func (d *Daemon) SessionID() string {
	return d.sessionID
}

// Stats returns the counter set fed by the engine's attempt observer.
func (d *Daemon) Stats() *Stats {
	return d.stats
}

// Status assembles the transport-ready runtime snapshot, including the
// preflight checks so a status view reflects current filesystem and
// credential state.
func (d *Daemon) Status() api.DaemonStatus {
	d.mu.Lock()
	startedAt := d.startedAt
	lastErr := d.lastErr
	d.mu.Unlock()

	llmCfg := d.cfg.GetLLM()
	return api.DaemonStatus{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		SessionID:  d.sessionID,
		StartedAt:  api.FormatTime(startedAt),
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		LockPath:   d.lockPath,
		SocketPath: d.cfg.SocketPath(),
		LogPath:    d.logPath,
		LastError:  lastErr,
		Requests:   d.stats.Snapshot(),
		Checks:     api.FromCheckResults(preflight.RunAll(d.cfg)),
	}
}

func (d *Daemon) recordError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.lastErr = err.Error()
	}
}
