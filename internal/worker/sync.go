// Package worker runs the background loops of the dashboard process.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Exporter pushes the current dashboard state to an external destination.
type Exporter interface {
	Export(ctx context.Context) error
}

// SyncWorker periodically exports the dashboard state.
type SyncWorker struct {
	exporter Exporter
	interval time.Duration
}

// NewSyncWorker creates a new SyncWorker.
func NewSyncWorker(exporter Exporter, interval time.Duration) *SyncWorker {
	return &SyncWorker{exporter: exporter, interval: interval}
}

func (w *SyncWorker) export(ctx context.Context) {
	start := time.Now()
	if err := w.exporter.Export(ctx); err != nil {
		slog.Error("SyncWorker: export failed", "error", err)
		return
	}
	slog.Info("SyncWorker: export completed", "duration", time.Since(start))
}

// Run starts the sync loop. It blocks until the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context) {
	slog.Info("SyncWorker: starting", "interval", w.interval)

	// Export immediately on startup
	w.export(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SyncWorker: shutting down")
			return
		case <-ticker.C:
			w.export(ctx)
		}
	}
}
