package customer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mbd888/codtrack/internal/metrics"
)

// MerchantSource lists the merchants whose customers should be snapshotted.
type MerchantSource interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Worker periodically snapshots customer risk profiles for every merchant,
// so a customer's risk can be charted over time even though the live profile
// is recomputed from the order log on every read.
type Worker struct {
	service   *Service
	merchants MerchantSource
	store     SnapshotStore
	interval  time.Duration
	logger    *slog.Logger
	stop      chan struct{}
}

// NewWorker creates a snapshot worker.
// interval is typically 1 hour in production, seconds in demo mode.
func NewWorker(service *Service, merchants MerchantSource, store SnapshotStore, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		service:   service,
		merchants: merchants,
		store:     store,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start begins the snapshot loop. Call in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on start
	w.snapshot(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.snapshot(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *Worker) Stop() {
	select {
	case w.stop <- struct{}{}:
	default:
	}
}

func (w *Worker) snapshot(ctx context.Context) {
	merchantIDs, err := w.merchants.ListIDs(ctx)
	if err != nil {
		w.logger.Warn("risk snapshot failed to list merchants", "error", err)
		metrics.SnapshotRunsTotal.WithLabelValues("failed").Inc()
		return
	}

	total := 0
	for _, merchantID := range merchantIDs {
		profiles, err := w.service.Profiles(ctx, merchantID)
		if err != nil {
			w.logger.Warn("risk snapshot failed to compute profiles",
				"merchant_id", merchantID, "error", err)
			continue
		}
		if len(profiles) == 0 {
			continue
		}

		snaps := make([]*Snapshot, 0, len(profiles))
		for _, p := range profiles {
			snaps = append(snaps, SnapshotFromProfile(merchantID, p))
		}
		if err := w.store.SaveBatch(ctx, snaps); err != nil {
			w.logger.Warn("risk snapshot failed to save",
				"merchant_id", merchantID, "count", len(snaps), "error", err)
			continue
		}
		total += len(snaps)
	}

	metrics.SnapshotRunsTotal.WithLabelValues("ok").Inc()
	if total > 0 {
		w.logger.Info("customer risk snapshot completed", "customers", total)
	}
}
