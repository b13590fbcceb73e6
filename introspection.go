/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/storagemodels"
)

// ProcessStats returns process resource usage, the global statistics and the
// keys of every registered instance.
func (h *Hub) ProcessStats(ctx context.Context) storagemodels.ProcessStats {
	pid := int32(os.Getpid())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	out := storagemodels.ProcessStats{
		Version:       Version,
		GoVersion:     runtime.Version(),
		PID:           pid,
		StartedAt:     strfmt.DateTime(h.started),
		UptimeSeconds: h.clock().Sub(h.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Memory: storagemodels.MemoryStats{
			HeapAlloc: ms.HeapAlloc,
			HeapSys:   ms.HeapSys,
			Sys:       ms.Sys,
			NumGC:     ms.NumGC,
		},
		Global:    h.GlobalStats(),
		Instances: instanceKeys(h.snapshotEntries()),
	}

	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		logger.DebugCtx(ctx, "Process info unavailable", logger.Err(err))
		return out
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		out.Memory.RSS = mem.RSS
		out.Memory.VMS = mem.VMS
	}
	if times, err := proc.TimesWithContext(ctx); err == nil {
		out.CPU = storagemodels.CPUStats{User: times.User, System: times.System}
	}
	return out
}

// Uptime returns the time since the Hub was created.
func (h *Hub) Uptime() time.Duration { return h.clock().Sub(h.started) }

// InstanceStats describes one registered instance. An unknown key yields
// (nil, false); that is a lookup miss, not an error.
func (h *Hub) InstanceStats(key Key) (*storagemodels.InstanceStats, bool) {
	e, ok := h.lookup(key)
	if !ok {
		return nil, false
	}

	h.statsMu.Lock()
	stats := e.stats.snapshot()
	h.statsMu.Unlock()

	out := &storagemodels.InstanceStats{
		Service:     key.Service,
		Path:        key.Path,
		CreatedAt:   strfmt.DateTime(e.created),
		Closed:      e.isClosed(),
		Config:      e.db.Info(),
		Stats:       stats,
		Collections: []storagemodels.CollectionInfo{},
	}
	for _, c := range e.db.Collections() {
		out.Collections = append(out.Collections, c.Info())
	}
	return out, true
}
