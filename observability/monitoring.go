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

// StatusSnapshot aggregates core activity and self metrics for the
// status endpoint.
type StatusSnapshot struct {
	MessagesPosted  uint64  `json:"messages_posted"`
	CallsInitiated  uint64  `json:"calls_initiated"`
	SMSSent         uint64  `json:"sms_sent"`
	EventsDelivered uint64  `json:"events_delivered"`
	EventsDropped   uint64  `json:"events_dropped"`
	ActiveSessions  int     `json:"active_sessions"`
	CPUPercent      float64 `json:"cpu_percent"`
	RAMBytes        uint64  `json:"ram_bytes"`
	PidStatus       string  `json:"pid_status"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// MonitoringManager collects realtime telemetry. Counters are bumped on
// the hot path with atomics; the snapshot is recomputed by Listen on a
// fixed interval so reads never touch the OS.
type MonitoringManager struct {
	log    *slog.Logger
	mu     sync.RWMutex
	latest StatusSnapshot

	messagesPosted  uint64
	callsInitiated  uint64
	smsSent         uint64
	eventsDelivered uint64
	eventsDropped   uint64
	activeSessions  int64

	startedAt time.Time
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, startedAt: time.Now()}
}

func (mm *MonitoringManager) IncrMessagesPosted()  { atomic.AddUint64(&mm.messagesPosted, 1) }
func (mm *MonitoringManager) IncrCallsInitiated()  { atomic.AddUint64(&mm.callsInitiated, 1) }
func (mm *MonitoringManager) IncrSMSSent()         { atomic.AddUint64(&mm.smsSent, 1) }
func (mm *MonitoringManager) IncrEventsDelivered() { atomic.AddUint64(&mm.eventsDelivered, 1) }
func (mm *MonitoringManager) IncrEventsDropped()   { atomic.AddUint64(&mm.eventsDropped, 1) }

func (mm *MonitoringManager) SessionOpened() { atomic.AddInt64(&mm.activeSessions, 1) }
func (mm *MonitoringManager) SessionClosed() { atomic.AddInt64(&mm.activeSessions, -1) }

// Run refreshes the snapshot every interval until the context ends. It
// satisfies the supervised worker contract.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			mm.log.Info("Monitoring manager stopped")
			return nil
		case <-ticker.C:
			mm.updateStats(p)
		}
	}
}

func (mm *MonitoringManager) updateStats(p *process.Process) {
	rss, cpu, status, err := selfStats(p)
	if err != nil {
		mm.log.Debug("Failed to collect self stats", "err", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latest = StatusSnapshot{
		MessagesPosted:  atomic.LoadUint64(&mm.messagesPosted),
		CallsInitiated:  atomic.LoadUint64(&mm.callsInitiated),
		SMSSent:         atomic.LoadUint64(&mm.smsSent),
		EventsDelivered: atomic.LoadUint64(&mm.eventsDelivered),
		EventsDropped:   atomic.LoadUint64(&mm.eventsDropped),
		ActiveSessions:  int(atomic.LoadInt64(&mm.activeSessions)),
		CPUPercent:      cpu,
		RAMBytes:        rss,
		PidStatus:       status,
		AllocMemMb:      m.Alloc / 1024 / 1024,
		NumGC:           m.NumGC,
		UptimeSeconds:   time.Since(mm.startedAt).Seconds(),
	}
}

func (mm *MonitoringManager) GetLatest() StatusSnapshot {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}

// selfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
