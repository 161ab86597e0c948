// Package worker runs the periodic auto-backup loop.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// BackupWorkerConfig holds configuration for the backup worker
type BackupWorkerConfig struct {
	// Interval is how often to take a snapshot (default: 1h)
	Interval time.Duration
}

// DefaultBackupWorkerConfig returns sensible defaults
func DefaultBackupWorkerConfig() BackupWorkerConfig {
	return BackupWorkerConfig{
		Interval: time.Hour,
	}
}

// BackupWorker periodically snapshots the dataset into the rolling
// backup history. The auto-backup setting is re-read on every tick, so
// toggling it takes effect without a restart. A failed snapshot logs and
// waits for the next tick; it never stops the loop.
type BackupWorker struct {
	gateway *storage.Gateway
	logger  *log.Logger
	config  BackupWorkerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewBackupWorker creates a new backup worker
func NewBackupWorker(gateway *storage.Gateway, logger *log.Logger, config BackupWorkerConfig) *BackupWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if config.Interval <= 0 {
		config.Interval = DefaultBackupWorkerConfig().Interval
	}
	return &BackupWorker{
		gateway: gateway,
		logger:  logger.WithComponent(log.ComponentWorker),
		config:  config,
	}
}

// Start begins the backup loop. Returns an error if already running.
func (w *BackupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("backup worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Backup worker started", "interval", w.config.Interval)

	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *BackupWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		w.logger.InfoContext(ctx, "Backup worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Backup worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *BackupWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *BackupWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick takes one snapshot if auto-backup is currently enabled.
func (w *BackupWorker) tick(ctx context.Context) {
	settings, err := w.gateway.Settings(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to read settings", log.FieldError, err)
		return
	}
	if !settings.AutoBackup {
		w.logger.DebugContext(ctx, "Auto-backup disabled, skipping tick")
		return
	}
	if err := w.gateway.CreateBackup(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Automatic backup failed",
			log.FieldError, err, log.FieldOperation, log.OpBackup)
		return
	}
	w.logger.InfoContext(ctx, "Automatic backup completed", log.FieldOperation, log.OpBackup)
}
