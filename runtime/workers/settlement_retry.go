package workers

import (
	"context"
	"log/slog"
	"time"

	"ludarena/runtime"
)

// SettlementRetryWorker drains the parked settlement backlog. The
// coordinator parks a settlement when its durable write fails; this
// loop retries each due record until it lands.
type SettlementRetryWorker struct {
	log         *slog.Logger
	coordinator *runtime.Coordinator
	interval    time.Duration
	onRetry     func() // metric hook, optional
}

func NewSettlementRetryWorker(
	log *slog.Logger,
	coordinator *runtime.Coordinator,
	interval time.Duration,
	onRetry func(),
) *SettlementRetryWorker {
	return &SettlementRetryWorker{
		log:         log,
		coordinator: coordinator,
		interval:    interval,
		onRetry:     onRetry,
	}
}

func (w *SettlementRetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping settlement retries")
			return nil
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *SettlementRetryWorker) drain(ctx context.Context) {
	pending := w.coordinator.Pending()
	for _, record := range pending.Due() {
		if w.onRetry != nil {
			w.onRetry()
		}
		if err := w.coordinator.RetrySettlement(ctx, record); err != nil {
			w.log.Warn("Settlement retry failed", "session", record.SessionID, "error", err)
			continue
		}
		pending.Resolve(record.SessionID)
		w.log.Info("Parked settlement recovered", "session", record.SessionID)
	}
}
