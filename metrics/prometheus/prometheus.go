/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package prometheus implements metrics.Recorder with Prometheus collectors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/suparena/storehub/metrics"
	"github.com/suparena/storehub/storagemodels"
)

// Recorder holds the storehub_* collectors.
type Recorder struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	instances          prometheus.Gauge
	initializations    *prometheus.CounterVec
	initializationTime *prometheus.HistogramVec
}

var _ metrics.Recorder = (*Recorder)(nil)

// New registers the collectors with reg. It panics on duplicate
// registration, which only happens at startup.
func New(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storehub_operations_total",
				Help: "Total dispatcher operations by service, operation and status",
			},
			[]string{"service", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storehub_operation_duration_seconds",
				Help:    "Dispatcher operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		instances: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "storehub_instances",
				Help: "Number of open store instances",
			},
		),
		initializations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storehub_initializations_total",
				Help: "Total initializer runs by service and status",
			},
			[]string{"service", "status"},
		),
		initializationTime: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storehub_initialization_duration_seconds",
				Help:    "Initializer duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
			},
			[]string{"service"},
		),
	}
}

// ObserveOperation implements metrics.Recorder.
func (r *Recorder) ObserveOperation(service string, op storagemodels.OperationKind, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.operationsTotal.WithLabelValues(service, string(op), status).Inc()
	r.operationDuration.WithLabelValues(service, string(op)).Observe(d.Seconds())
}

// SetInstances implements metrics.Recorder.
func (r *Recorder) SetInstances(n int) {
	if r == nil {
		return
	}
	r.instances.Set(float64(n))
}

// ObserveInitialization implements metrics.Recorder.
func (r *Recorder) ObserveInitialization(service string, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.initializations.WithLabelValues(service, status).Inc()
	r.initializationTime.WithLabelValues(service).Observe(d.Seconds())
}
