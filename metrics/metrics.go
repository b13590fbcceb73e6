/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics defines the hub's metrics surface.
//
// A nil Recorder is valid everywhere and costs nothing, so callers that do
// not export metrics pass nil:
//
//	hub := storehub.New(storehub.WithMetrics(nil))
//
// The Prometheus implementation lives in metrics/prometheus.
package metrics

import (
	"time"

	"github.com/suparena/storehub/storagemodels"
)

// Status labels for ObserveOperation.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder receives hub events.
type Recorder interface {
	// ObserveOperation records one completed dispatcher operation.
	ObserveOperation(service string, op storagemodels.OperationKind, status string, d time.Duration)

	// SetInstances reports the number of open store instances.
	SetInstances(n int)

	// ObserveInitialization records one initializer run.
	ObserveInitialization(service string, status string, d time.Duration)
}

// ObserveOperation forwards to r when r is non-nil.
func ObserveOperation(r Recorder, service string, op storagemodels.OperationKind, err error, d time.Duration) {
	if r != nil {
		r.ObserveOperation(service, op, Status(err), d)
	}
}

// SetInstances forwards to r when r is non-nil.
func SetInstances(r Recorder, n int) {
	if r != nil {
		r.SetInstances(n)
	}
}

// ObserveInitialization forwards to r when r is non-nil.
func ObserveInitialization(r Recorder, service string, err error, d time.Duration) {
	if r != nil {
		r.ObserveInitialization(service, Status(err), d)
	}
}

// Status maps an operation error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
