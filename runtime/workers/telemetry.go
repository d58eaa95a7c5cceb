package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chatd/runtime"
)

// TelemetryWorker periodically logs registry gauges together with the
// process's own memory and CPU footprint. Purely observational: it reads
// the registries through their snapshot methods and mutates nothing.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	sessions *runtime.SessionRegistry
	rooms    *runtime.RoomRegistry
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	sessions *runtime.SessionRegistry, rooms *runtime.RoomRegistry) *TelemetryWorker {
	return &TelemetryWorker{
		log:      log,
		interval: interval,
		sessions: sessions,
		rooms:    rooms,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	attrs := []any{
		"sessions", w.sessions.Count(),
		"authenticated", w.sessions.CountAuthenticated(),
		"rooms", w.rooms.Count(),
	}

	if mem, err := p.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_mb", mem.RSS/(1024*1024))
	}
	if cpu, err := p.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}

	w.log.Info("Runtime stats", attrs...)
}
