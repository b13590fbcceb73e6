/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub/metrics"
	"github.com/suparena/storehub/storagemodels"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	metrics.ObserveOperation(r, "users", storagemodels.OpFind, nil, 2*time.Millisecond)
	metrics.ObserveOperation(r, "users", storagemodels.OpFind, nil, time.Millisecond)
	metrics.ObserveOperation(r, "users", storagemodels.OpInsert, errors.New("boom"), time.Millisecond)
	metrics.SetInstances(r, 3)
	metrics.ObserveInitialization(r, "users", nil, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("users", "find", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("users", "insert", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.instances))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.initializations.WithLabelValues("users", "ok")))

	n, err := testutil.GatherAndCount(reg, "storehub_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOperation("users", storagemodels.OpGet, metrics.StatusOK, time.Millisecond)
		r.SetInstances(1)
		r.ObserveInitialization("users", metrics.StatusOK, time.Millisecond)
	})
	assert.NotPanics(t, func() {
		metrics.ObserveOperation(nil, "users", storagemodels.OpGet, nil, time.Millisecond)
	})
}
