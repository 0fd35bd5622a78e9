package workers

import (
	"context"

	"ludarena/observability"
)

// MonitoringWorker adapts the monitoring manager's refresh loop to the
// supervisor's Worker contract.
type MonitoringWorker struct {
	manager *observability.MonitoringManager
}

func NewMonitoringWorker(manager *observability.MonitoringManager) *MonitoringWorker {
	return &MonitoringWorker{manager: manager}
}

func (w *MonitoringWorker) Run(ctx context.Context) error {
	w.manager.Listen(ctx)
	return nil
}
