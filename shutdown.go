/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/metrics"
)

// ShutdownReport is the outcome of closing one instance.
type ShutdownReport struct {
	Key      Key           `json:"key"`
	Closed   bool          `json:"closed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Shutdown closes every open instance exactly once, in parallel, and
// returns one report per instance it closed, in registration order.
// Entries stay registered and later operations on them fail with
// InstanceClosed. Calling it on an empty or already shut down Hub returns
// no reports and no error.
func (h *Hub) Shutdown(ctx context.Context) ([]ShutdownReport, error) {
	var targets []*entry
	for _, e := range h.snapshotEntries() {
		// CompareAndSwap makes concurrent Shutdown calls close each entry once
		if e.db != nil && e.closed.CompareAndSwap(false, true) {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		return []ShutdownReport{}, nil
	}

	reports := make([]ShutdownReport, len(targets))
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, e := range targets {
		i, e := i, e
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := e.db.Close(ctx)
			reports[i] = ShutdownReport{Key: e.key, Closed: err == nil, Duration: time.Since(start)}
			if err != nil {
				reports[i].Error = err.Error()
				errs[i] = fmt.Errorf("closing %s: %w", e.key, err)
				logger.WarnCtx(ctx, "Store instance close failed",
					logger.Service(e.key.Service), logger.Path(e.key.Path), logger.Err(err))
				return
			}
			logger.InfoCtx(ctx, "Store instance closed",
				logger.Service(e.key.Service), logger.Path(e.key.Path),
				logger.DurationMs(logger.Duration(start)))
		}()
	}
	wg.Wait()

	metrics.SetInstances(h.metrics, h.liveCount())
	return reports, errors.Join(errs...)
}
