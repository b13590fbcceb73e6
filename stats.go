/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"context"
	"time"

	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/metrics"
	"github.com/suparena/storehub/storagemodels"
)

// statsBucket accumulates request counts and elapsed time per operation.
type statsBucket struct {
	totalRequests uint64
	totalTime     time.Duration
	ops           map[storagemodels.OperationKind]*storagemodels.OperationStats
}

func newStatsBucket() *statsBucket {
	b := &statsBucket{ops: make(map[storagemodels.OperationKind]*storagemodels.OperationStats, len(storagemodels.OperationKinds))}
	for _, op := range storagemodels.OperationKinds {
		b.ops[op] = &storagemodels.OperationStats{}
	}
	return b
}

func (b *statsBucket) add(op storagemodels.OperationKind, d time.Duration) {
	b.totalRequests++
	b.totalTime += d
	s, ok := b.ops[op]
	if !ok {
		s = &storagemodels.OperationStats{}
		b.ops[op] = s
	}
	s.Requests++
	s.TotalTime += d
}

func (b *statsBucket) snapshot() storagemodels.StatsSnapshot {
	out := storagemodels.StatsSnapshot{
		TotalRequests: b.totalRequests,
		TotalTime:     b.totalTime,
		Operations:    make(map[storagemodels.OperationKind]storagemodels.OperationStats, len(b.ops)),
	}
	for op, s := range b.ops {
		out.Operations[op] = *s
	}
	return out
}

// record adds one measurement to the global bucket and to e's bucket in the
// same critical section, so global totals always equal the sum of instances.
func (h *Hub) record(e *entry, op storagemodels.OperationKind, d time.Duration) {
	h.statsMu.Lock()
	h.global.add(op, d)
	e.stats.add(op, d)
	h.statsMu.Unlock()
}

// instrument runs fn against the resolved entry for key and records its
// elapsed time. Resolution failures are not counted.
func (h *Hub) instrument(ctx context.Context, key Key, op storagemodels.OperationKind, fn func(ctx context.Context, e *entry) error) error {
	e, err := h.resolve(ctx, key)
	if err != nil {
		return err
	}
	if e.isClosed() {
		return instanceClosed(key)
	}

	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithInstance(key.Service, key.Path).WithOperation(string(op)))
	}

	start := time.Now()
	err = fn(ctx, e)
	elapsed := time.Since(start)

	h.record(e, op, elapsed)
	metrics.ObserveOperation(h.metrics, key.Service, op, err, elapsed)

	if err != nil {
		logger.DebugCtx(ctx, "Operation failed",
			logger.Operation(string(op)), logger.Err(err),
			logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	}
	return err
}

// GlobalStats returns the aggregate of every instance's statistics.
func (h *Hub) GlobalStats() storagemodels.StatsSnapshot {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.global.snapshot()
}
