package workers

import (
	"context"
	"log/slog"
	"time"

	"ludarena/runtime"
)

// SnapshotSweeperWorker periodically mirrors every live session to the
// store. The mirror exists only for restart recovery, so it lags the
// in-memory truth by at most one interval.
type SnapshotSweeperWorker struct {
	log         *slog.Logger
	coordinator *runtime.Coordinator
	interval    time.Duration
}

func NewSnapshotSweeperWorker(log *slog.Logger, coordinator *runtime.Coordinator, interval time.Duration) *SnapshotSweeperWorker {
	return &SnapshotSweeperWorker{log: log, coordinator: coordinator, interval: interval}
}

func (w *SnapshotSweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// One last sweep so a clean shutdown loses nothing.
			w.coordinator.MirrorAll()
			w.log.Debug("Context done, stopping snapshot sweeps")
			return nil
		case <-ticker.C:
			w.coordinator.MirrorAll()
		}
	}
}
