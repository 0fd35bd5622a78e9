// Package observability aggregates live metrics for the debug surface.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ArenaStats is the snapshot served to the inspector UI.
type ArenaStats struct {
	// Activity counters, cumulative since boot.
	MatchesMade        uint64 `json:"matches_made"`
	MovesCommitted     uint64 `json:"moves_committed"`
	SettlementsApplied uint64 `json:"settlements_applied"`
	SettlementRetries  uint64 `json:"settlement_retries"`
	EventsPublished    uint64 `json:"events_published"`
	ErrorCount         uint64 `json:"error_count"`

	// Live gauges, sampled each tick.
	LiveSessions       int `json:"live_sessions"`
	QueuedAccounts     int `json:"queued_accounts"`
	PendingSettlements int `json:"pending_settlements"`

	// Process health.
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	CpuPercent float64 `json:"cpu_percent"`
	RssMb      uint64  `json:"rss_mb"`
}

// Gauges lets the manager pull live counts from the runtime without
// owning references to it.
type Gauges struct {
	LiveSessions       func() int
	QueuedAccounts     func() int
	PendingSettlements func() int
}

type MonitoringManager struct {
	log    *slog.Logger
	gauges Gauges

	mu          sync.RWMutex
	latestStats ArenaStats
	self        *process.Process

	matchesMade        uint64
	movesCommitted     uint64
	settlementsApplied uint64
	settlementRetries  uint64
	eventsPublished    uint64
	errorCount         uint64
}

func NewMonitoringManager(log *slog.Logger, gauges Gauges) *MonitoringManager {
	mm := &MonitoringManager{log: log, gauges: gauges}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		mm.self = p
	} else {
		log.Warn("Process introspection unavailable", "error", err)
	}
	return mm
}

func (mm *MonitoringManager) IncrMatchesMade()        { atomic.AddUint64(&mm.matchesMade, 1) }
func (mm *MonitoringManager) IncrMovesCommitted()     { atomic.AddUint64(&mm.movesCommitted, 1) }
func (mm *MonitoringManager) IncrSettlementsApplied() { atomic.AddUint64(&mm.settlementsApplied, 1) }
func (mm *MonitoringManager) IncrSettlementRetries()  { atomic.AddUint64(&mm.settlementRetries, 1) }
func (mm *MonitoringManager) IncrEventsPublished()    { atomic.AddUint64(&mm.eventsPublished, 1) }
func (mm *MonitoringManager) IncrErrorCount()         { atomic.AddUint64(&mm.errorCount, 1) }

// Listen refreshes the snapshot once per second until the context ends.
func (mm *MonitoringManager) Listen(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Info("Monitoring manager stopped")
			return
		case <-ticker.C:
			mm.updateStats()
		}
	}
}

func (mm *MonitoringManager) updateStats() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.latestStats.MatchesMade = atomic.LoadUint64(&mm.matchesMade)
	mm.latestStats.MovesCommitted = atomic.LoadUint64(&mm.movesCommitted)
	mm.latestStats.SettlementsApplied = atomic.LoadUint64(&mm.settlementsApplied)
	mm.latestStats.SettlementRetries = atomic.LoadUint64(&mm.settlementRetries)
	mm.latestStats.EventsPublished = atomic.LoadUint64(&mm.eventsPublished)
	mm.latestStats.ErrorCount = atomic.LoadUint64(&mm.errorCount)

	if mm.gauges.LiveSessions != nil {
		mm.latestStats.LiveSessions = mm.gauges.LiveSessions()
	}
	if mm.gauges.QueuedAccounts != nil {
		mm.latestStats.QueuedAccounts = mm.gauges.QueuedAccounts()
	}
	if mm.gauges.PendingSettlements != nil {
		mm.latestStats.PendingSettlements = mm.gauges.PendingSettlements()
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC

	if mm.self != nil {
		if cpu, err := mm.self.CPUPercent(); err == nil {
			mm.latestStats.CpuPercent = cpu
		}
		if mem, err := mm.self.MemoryInfo(); err == nil {
			mm.latestStats.RssMb = mem.RSS / 1024 / 1024
		}
	}
}

func (mm *MonitoringManager) GetLatest() ArenaStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}
