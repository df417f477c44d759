package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ServerStats is the application side of a heartbeat.
type ServerStats struct {
	Sessions int
	Rooms    int
}

// Heartbeat is one sample of the process health.
type Heartbeat struct {
	Pid        int32
	Status     string
	CPUPercent float64
	RSSBytes   uint64
	ServerStats
}

// HeartbeatWorker logs the process health and the server load at a fixed
// interval.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    func() ServerStats
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, stats func() ServerStats) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, stats: stats}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			hb, err := w.Beat(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			w.log.Info("Heartbeat",
				"pid", hb.Pid,
				"status", hb.Status,
				"cpu_percent", hb.CPUPercent,
				"rss_bytes", hb.RSSBytes,
				"sessions", hb.Sessions,
				"rooms", hb.Rooms)
		}
	}
}

// Beat collects a single heartbeat for the given process.
func (w *HeartbeatWorker) Beat(p *process.Process) (Heartbeat, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return Heartbeat{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return Heartbeat{}, err
	}
	status, err := p.Status()
	if err != nil {
		return Heartbeat{}, err
	}
	hb := Heartbeat{
		Pid:        p.Pid,
		Status:     status,
		CPUPercent: cpuPercent,
		RSSBytes:   memInfo.RSS,
	}
	if w.stats != nil {
		hb.ServerStats = w.stats()
	}
	return hb, nil
}
